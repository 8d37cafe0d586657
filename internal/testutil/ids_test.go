package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("page")

	assert.Equal(t, "page-1", gen.Generate())
	assert.Equal(t, "page-2", gen.Generate())
}

func TestSequenceGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "req-1", NewSequenceGenerator("").Generate())
}

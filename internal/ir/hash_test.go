package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorFingerprintStable(t *testing.T) {
	d := Descriptor{Mode: ModeAll, ExcludedIDs: []RecordID{"7"}}

	first, err := DescriptorFingerprint(d)
	require.NoError(t, err)
	second, err := DescriptorFingerprint(d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestDescriptorFingerprintDistinguishesSelections(t *testing.T) {
	all, err := DescriptorFingerprint(Descriptor{Mode: ModeAll})
	require.NoError(t, err)
	none, err := DescriptorFingerprint(Descriptor{Mode: ModeNone})
	require.NoError(t, err)
	rangeA, err := DescriptorFingerprint(Descriptor{Mode: ModeRange, RangeCount: IntPtr(10)})
	require.NoError(t, err)
	rangeB, err := DescriptorFingerprint(Descriptor{Mode: ModeRange, RangeCount: IntPtr(11)})
	require.NoError(t, err)

	assert.NotEqual(t, all, none)
	assert.NotEqual(t, rangeA, rangeB)
}

func TestDescriptorFingerprintIgnoresEmptyLists(t *testing.T) {
	bare, err := DescriptorFingerprint(Descriptor{Mode: ModeExplicit})
	require.NoError(t, err)
	empty, err := DescriptorFingerprint(Descriptor{Mode: ModeExplicit, IncludedIDs: []RecordID{}})
	require.NoError(t, err)

	assert.Equal(t, bare, empty)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"mode":"ALL"}`)
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
}

package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDescriptor = "pagesel/descriptor/v" + WireVersion
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DescriptorFingerprint computes a content-addressed id for a descriptor.
// Two descriptors describing the same selection in the same canonical form
// share a fingerprint, so a bulk endpoint can use it as an idempotency key.
func DescriptorFingerprint(d Descriptor) (string, error) {
	canonical, err := MarshalCanonical(d.Canonical())
	if err != nil {
		return "", fmt.Errorf("DescriptorFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDescriptor, canonical), nil
}

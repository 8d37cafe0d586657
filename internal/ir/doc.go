// Package ir provides the shared wire and record types for pagesel.
//
// This package contains type definitions and the canonical encoding only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps ir the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Record positions are absolute, zero-based indices in collection order
//   - NO float types on the wire - counts and indices are integers
//   - Descriptor JSON tags use lowerCamelCase to match the bulk endpoint
//   - Canonical JSON (RFC 8785) is the only input to fingerprints
package ir

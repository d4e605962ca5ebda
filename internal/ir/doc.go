// Package ir provides the plain value types that answers are reported in,
// and their canonical serialization.
//
// This package contains value definitions only. It imports nothing
// internal, so both the engine and the front-ends can depend on it.
//
// Key design constraints:
//   - Values are a sealed set: String, Int, Float, Bool, Array, Object,
//     Unbound (and Null for decoded expectations only)
//   - Int and Float are distinct: 1 and 1.0 are different answers
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only input to
//     answer and goal keys
//   - All JSON keys of answers are variable names plus the reserved "tags"
package ir

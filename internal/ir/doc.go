// Package ir provides the value types shared by every layer of minirel.
//
// This package contains leaf types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Constants are a closed sum type: IntConstant and StringConstant.
//   - Comparisons between different kinds are errors, never coercions.
//   - Canonical JSON (sorted keys, NFC strings, no floats) is the only
//     serialization used for fingerprints and golden output.
package ir

package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainStatement is the domain prefix for statement fingerprints.
// The version suffix allows the encoding to change without collisions.
const DomainStatement = "minirel/statement/v" + IRVersion

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content-addressed identity for a canonical command
// map. Two statements that parse to the same structure share a fingerprint
// regardless of keyword case or whitespace.
func Fingerprint(canonical map[string]any) (string, error) {
	data, err := MarshalCanonical(canonical)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStatement, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the input is known to be valid.
func MustFingerprint(canonical map[string]any) string {
	fp, err := Fingerprint(canonical)
	if err != nil {
		panic(err)
	}
	return fp
}

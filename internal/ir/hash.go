package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery   = "snapquery/query/v1"
	DomainNodeSet = "snapquery/nodeset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryHash computes a content-addressed fingerprint of a query document.
// Queries that differ only in key order hash identically, even though key
// order can change which error is reported first.
func QueryHash(query IRValue) (string, error) {
	canonical, err := MarshalCanonical(query)
	if err != nil {
		return "", fmt.Errorf("QueryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// NodeSetHash fingerprints a named node-set definition.
func NodeSetHash(name string, definition IRValue) (string, error) {
	obj := NewIRObject(
		F("name", IRString(name)),
		F("definition", definition),
	)
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("NodeSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNodeSet, canonical), nil
}

// MustQueryHash is like QueryHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryHash(query IRValue) string {
	h, err := QueryHash(query)
	if err != nil {
		panic(err)
	}
	return h
}

// Package ir provides the JSON-compatible value model that query documents
// are decoded into before they are parsed into typed query trees.
//
// This package contains value types and encoders only. Other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - IRObject is ordered: document key order is evaluation order
//   - Integers and floats are distinct (IRInt vs IRFloat)
//   - Canonical encoding (MarshalCanonical) is the only input to hashing
package ir

// Package ir provides the operand value types used by catalogql filter,
// sort and pagination trees.
//
// This package contains value definitions and their decoders only. All other
// internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - IRValue is a sealed interface; backends type-switch exhaustively
//   - Object keys keep document order, so compiled queries are reproducible
//   - Integers never round-trip through float64
//   - Strings are NFC normalized at the decode boundary
package ir

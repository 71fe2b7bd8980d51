// Package fragments reads and writes the framing of fiscal data TLV
// records: little-endian tags and lengths, and trimmed integers.
//
// Nothing in this package knows about documents, schemas or which
// tags are valid. Producing meaningful records is up to the caller.
//
// Most programs only need package ffd. This package is for
// ffd.Marshaler and ffd.Unmarshaler implementations that lay out
// their payloads by hand.
package fragments

// Package ffd implements the fiscal data format, the binary
// interchange format for tax-relevant receipt records exchanged
// between cash registers, fiscal storage drives and fiscal data
// operators.
//
// # Wire format
//
// A fiscal document is a sequence of tag-length-value records:
//
//	record   := tag(uint16) length(uint16) value(length bytes)
//	document := header_tag(uint16) body_length(uint16) body signature
//
// All integers in framing are little-endian. The body is itself a
// record sequence, and the signature is whatever follows the body,
// outside of the header's length. A record's value may in turn be a
// record sequence (a "structured TLV"), which is how receipts carry
// line items and other nested records.
//
// # Containers
//
// [Container] is the untyped form of a record sequence: a multi-map
// from tag to payloads. It is the intermediate form for all typed
// encoding and decoding, and callers that want partial or best-effort
// access to malformed documents can use it directly:
//
//	c, err := ffd.Decode(body)
//	var total ffd.Decimal
//	found, err := c.Get(1020, &total)
//
// # Typed records
//
// [Marshal] and [Unmarshal] convert between wire documents and Go
// structs whose fields are mapped to tags with struct tags. See
// [Marshal] for the mapping rules. [ToContainer] and [FromContainer]
// perform the same mapping without the document framing, for
// adapters that convert records to and from other formats.
//
// # Enumerations and flags
//
// Status and type codes are represented by named unsigned integer
// types. [EnumDomain] and [FlagTable] provide the decoding policies
// and bit names that such types need, without discarding values that
// newer versions of the format might introduce.
package ffd

package ffd

import (
	"fmt"
	"reflect"

	"github.com/danderson/ffd/fragments"
)

// Marshal returns the wire encoding of the document v.
//
// v must be a struct, or a pointer to one, whose fields are mapped
// to the wire format with "ffd" struct tags:
//
//	type Receipt struct {
//	    // The document's own tag, which frames the body.
//	    Type uint16 `ffd:"header"`
//
//	    // A mandatory field.
//	    User string `ffd:"1048"`
//	    // An optional field.
//	    Email *string `ffd:"1117"`
//	    // A repeated field, holding every value for the tag in
//	    // order.
//	    Items []Item `ffd:"1059"`
//	    // A field padded to 20 bytes with spaces.
//	    RegNumber string `ffd:"1037,pad=20"`
//	    // A field that must be exactly 16 bytes long.
//	    DriveNumber [16]byte `ffd:"1041,fixed=16"`
//
//	    // Data following the document body, outside of its length.
//	    Signature *[8]byte `ffd:"signature"`
//
//	    // Not on the wire.
//	    Source string
//	}
//
// Every document type has exactly one header field, of a type whose
// underlying type is uint16. Untagged exported fields, and fields
// tagged `ffd:"-"`, are not on the wire.
//
// Pointer fields are optional. A nil optional field is absent from
// the encoding, and an absent tag decodes as nil. Slice fields other
// than byte slices are repeated. Non-pointer, non-slice fields are
// mandatory, and decoding fails if their tag is absent. A field
// cannot be both optional and repeated.
//
// Field values encode according to their type:
//
// bool and uint{8,16,32,64} values encode as trimmed little-endian
// integers, with high-order zero bytes omitted. Zero and false encode
// as an empty payload. A bool decodes only from 0 or 1.
//
// string values encode in code page 866. Strings containing
// characters outside the code page cannot be encoded.
//
// []byte values encode verbatim. [N]byte values encode verbatim, and
// decode only from exactly N bytes.
//
// [Decimal], [LocalTime] and [Container] values use their own
// encodings. Any type implementing [Marshaler] and [Unmarshaler]
// controls its own encoding.
//
// Struct values without a header field encode as a structured TLV:
// their own tagged fields encoded as a nested [Container].
//
// Signed integers, int, uint, floats, maps, interfaces, channels and
// functions cannot be encoded, nor can recursive types. Attempting to
// encode them causes Marshal to return a [TypeError].
//
// The encoding of v is its header tag, the 16-bit length of the
// encoded body, the body records in ascending tag order, and finally
// the signature.
func Marshal(v any) ([]byte, error) {
	val, err := derefValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	rec, err := documentRecord(val.Type())
	if err != nil {
		return nil, err
	}
	c, err := rec.toContainer(val)
	if err != nil {
		return nil, err
	}
	sig := c.Trailer
	c.Trailer = nil
	tag := uint16(rec.info.Header.GetWithZero(val).Uint())
	return Frame(tag, c, sig)
}

// Unmarshal decodes the document encoded in bs and stores the result
// in the value pointed to by v. If v is nil or not a pointer,
// Unmarshal returns a [TypeError]. v may point to a nil pointer to a
// document, which Unmarshal allocates.
//
// Unmarshal applies the inverse of the rules used by [Marshal]. Tags
// in the body that have no corresponding field are ignored, as is
// any data following a record whose tag is below 100 inside the
// body.
//
// Unmarshal is all or nothing: if decoding fails, v is not
// modified.
func Unmarshal(bs []byte, v any) error {
	val, err := outValue(v)
	if err != nil {
		return err
	}
	rec, err := documentRecord(derefType(val.Type()))
	if err != nil {
		return err
	}
	tag, body, sig, err := Unframe(bs)
	if err != nil {
		return err
	}
	out := reflect.New(rec.info.Type).Elem()
	if err := rec.fromContainer(body, sig, out); err != nil {
		return err
	}
	rec.info.Header.GetWithAlloc(out).SetUint(uint64(tag))
	storeThrough(val, out)
	return nil
}

// documentRecord returns the mapping of struct type t, checking that
// it has a header field.
func documentRecord(t reflect.Type) (*recordMapping, error) {
	rec, err := recordFor(t)
	if err != nil {
		return nil, err
	}
	if rec.info.Header == nil {
		return nil, typeErr(t, "document types must have a header field")
	}
	return rec, nil
}

// derefValue follows the pointers in v to the value they point to.
func derefValue(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Value{}, typeErr(nil, "cannot marshal nil interface")
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, typeErr(v.Type(), "cannot marshal nil pointer")
		}
		v = v.Elem()
	}
	return v, nil
}

// storeThrough sets the value at the end of dst's pointer chain to
// val, allocating nil pointers along the way.
func storeThrough(dst, val reflect.Value) {
	for dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}
	dst.Set(val)
}

// Frame returns the wire encoding of a document with the given
// header tag, body and signature.
func Frame(tag uint16, body *Container, sig []byte) ([]byte, error) {
	bs, err := body.Encode()
	if err != nil {
		return nil, err
	}
	if len(bs) > fragments.MaxLength {
		return nil, fmt.Errorf("%w: document body is %d bytes, max %d", ErrInvalidLength, len(bs), fragments.MaxLength)
	}
	var e fragments.Encoder
	e.Uint16(tag)
	e.Uint16(uint16(len(bs)))
	e.Write(bs)
	e.Write(sig)
	return e.Out, nil
}

// Unframe splits the document encoded in bs into its header tag, its
// body container, and the signature bytes that follow the body.
func Unframe(bs []byte) (tag uint16, body *Container, sig []byte, err error) {
	d := fragments.Decoder{In: bs}
	tag, err = d.Uint16()
	if err != nil {
		return 0, nil, nil, err
	}
	ln, err := d.Uint16()
	if err != nil {
		return 0, nil, nil, err
	}
	raw, err := d.Read(int(ln))
	if err != nil {
		return 0, nil, nil, err
	}
	body, err = Decode(raw)
	if err != nil {
		return 0, nil, nil, err
	}
	return tag, body, d.Rest(), nil
}

// ToContainer returns the body container of the record v, which must
// be a struct or a pointer to one. The record's signature, if any, is
// stored in the container's Trailer. The record's header, if any, is
// not represented.
func ToContainer(v any) (*Container, error) {
	val, err := derefValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	rec, err := recordFor(val.Type())
	if err != nil {
		return nil, err
	}
	return rec.toContainer(val)
}

// FromContainer decodes the body container c into the record pointed
// to by v. The container's Trailer is decoded as the record's
// signature. The record's header, if any, is set to zero.
//
// FromContainer is all or nothing: if decoding fails, v is not
// modified.
func FromContainer(c *Container, v any) error {
	val, err := outValue(v)
	if err != nil {
		return err
	}
	rec, err := recordFor(val.Type())
	if err != nil {
		return err
	}
	return rec.fromContainer(c, c.Trailer, val)
}

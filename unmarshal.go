package ffd

import (
	"fmt"
	"reflect"

	"github.com/danderson/ffd/fragments"
)

// Unmarshaler is the interface implemented by types that can
// unmarshal themselves from a wire payload.
//
// UnmarshalFFD must have a pointer receiver. If the codec encounters
// an Unmarshaler whose UnmarshalFFD method takes a value receiver, it
// returns a [TypeError].
//
// UnmarshalFFD receives the value's payload without its tag and
// length framing, and must copy the payload if it wishes to retain
// it.
type Unmarshaler interface {
	UnmarshalFFD(bs []byte) error
}

var unmarshalerType = reflect.TypeFor[Unmarshaler]()

// A decoderFunc decodes the wire payload bs into v, which must be
// settable.
type decoderFunc func(bs []byte, v reflect.Value) error

var decoders cache[decoderFunc]

// decoderFor returns the decoder func for the given type, if the type
// is representable in the wire format.
func decoderFor(t reflect.Type) (decoderFunc, error) {
	return decoders.Get(t)
}

// unmarshalValue decodes bs into the value pointed to by v.
func unmarshalValue(bs []byte, v any) error {
	val, err := outValue(v)
	if err != nil {
		return err
	}
	dec, err := decoderFor(val.Type())
	if err != nil {
		return err
	}
	out := reflect.New(val.Type()).Elem()
	if err := dec(bs, out); err != nil {
		return err
	}
	val.Set(out)
	return nil
}

// outValue returns the settable value pointed to by v.
func outValue(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Value{}, typeErr(nil, "can't unmarshal into nil interface")
	}
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer {
		return reflect.Value{}, typeErr(val.Type(), "can't unmarshal into a non-pointer")
	}
	if val.IsNil() {
		return reflect.Value{}, typeErr(val.Type(), "can't unmarshal into a nil pointer")
	}
	return val.Elem(), nil
}

func uncachedDecoder(t reflect.Type) (decoderFunc, error) {
	debugf("decoderFor(%s)", t)
	defer debugf("end decoderFor(%s)", t)

	// We only want Unmarshalers with pointer receivers, since a value
	// receiver would silently discard the results of the
	// UnmarshalFFD call and lead to confusing bugs.
	isPtr := t.Kind() == reflect.Pointer
	if t.Implements(unmarshalerType) {
		if !isPtr || t.Elem().Implements(unmarshalerType) {
			return nil, typeErr(t, "refusing to use ffd.Unmarshaler implementation with value receiver, Unmarshalers must use pointer receivers.")
		}
		return newMarshalDecoder(t), nil
	} else if !isPtr && reflect.PointerTo(t).Implements(unmarshalerType) {
		return newAddrMarshalDecoder(t), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return newPtrDecoder(t)
	case reflect.Bool:
		return newBoolDecoder(), nil
	case reflect.Int, reflect.Uint:
		return nil, typeErr(t, "int and uint aren't portable, use fixed width unsigned integers")
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return nil, typeErr(t, "signed integers have no wire encoding, use unsigned integers")
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return newUintDecoder(t), nil
	case reflect.String:
		return newStringDecoder(), nil
	case reflect.Slice, reflect.Array:
		if !isBytesType(t) {
			return nil, typeErr(t, "arrays of values must be declared as repeated struct fields")
		}
		if t.Kind() == reflect.Array {
			return newFixedBytesDecoder(t), nil
		}
		return newBytesDecoder(), nil
	case reflect.Struct:
		return newRecordDecoder(t)
	}
	return nil, typeErr(t, "no ffd mapping for type")
}

func newAddrMarshalDecoder(t reflect.Type) decoderFunc {
	ptr := newMarshalDecoder(reflect.PointerTo(t))
	return func(bs []byte, v reflect.Value) error {
		return ptr(bs, v.Addr())
	}
}

func newMarshalDecoder(t reflect.Type) decoderFunc {
	return func(bs []byte, v reflect.Value) error {
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		m := v.Interface().(Unmarshaler)
		return m.UnmarshalFFD(bs)
	}
}

func newPtrDecoder(t reflect.Type) (decoderFunc, error) {
	elem := t.Elem()
	elemDec, err := decoders.getLocked(elem)
	if err != nil {
		return nil, err
	}
	fn := func(bs []byte, v reflect.Value) error {
		if v.IsNil() {
			elem := reflect.New(elem)
			if err := elemDec(bs, elem.Elem()); err != nil {
				return err
			}
			v.Set(elem)
			return nil
		}
		return elemDec(bs, v.Elem())
	}
	return fn, nil
}

func newBoolDecoder() decoderFunc {
	return func(bs []byte, v reflect.Value) error {
		u, err := fragments.Trimmed(bs, 1)
		if err != nil {
			return rangeErr(err)
		}
		switch u {
		case 0:
			v.SetBool(false)
		case 1:
			v.SetBool(true)
		default:
			return fmt.Errorf("%w: boolean value %d", ErrNumberOutOfRange, u)
		}
		return nil
	}
}

func newUintDecoder(t reflect.Type) decoderFunc {
	width := int(t.Size())
	return func(bs []byte, v reflect.Value) error {
		u, err := fragments.Trimmed(bs, width)
		if err != nil {
			return rangeErr(err)
		}
		v.SetUint(u)
		return nil
	}
}

func newStringDecoder() decoderFunc {
	return func(bs []byte, v reflect.Value) error {
		s, err := decodeString(bs)
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	}
}

func newBytesDecoder() decoderFunc {
	return func(bs []byte, v reflect.Value) error {
		ret := reflect.MakeSlice(v.Type(), len(bs), len(bs))
		for i, b := range bs {
			ret.Index(i).SetUint(uint64(b))
		}
		v.Set(ret)
		return nil
	}
}

func newFixedBytesDecoder(t reflect.Type) decoderFunc {
	return func(bs []byte, v reflect.Value) error {
		if len(bs) != t.Len() {
			return fmt.Errorf("%w: %d bytes for %s", ErrInvalidLength, len(bs), t)
		}
		for i, b := range bs {
			v.Index(i).SetUint(uint64(b))
		}
		return nil
	}
}

// newRecordDecoder returns a decoder for a struct nested as a field
// value. Data trailing the nested container is decoded as the
// record's signature, and is an error if the record has none.
func newRecordDecoder(t reflect.Type) (decoderFunc, error) {
	rec, err := newRecordMapping(t, nil, decoders.getLocked)
	if err != nil {
		return nil, err
	}
	if rec.info.Header != nil {
		return nil, typeErr(t, "record with a header field %s cannot be nested in another record", rec.info.Header.Name)
	}
	return func(bs []byte, v reflect.Value) error {
		c, err := Decode(bs)
		if err != nil {
			return err
		}
		if rec.info.Signature == nil && len(c.Trailer) > 0 {
			return fmt.Errorf("%w: %d bytes of unexpected data after %s", ErrInvalidFormat, len(c.Trailer), t)
		}
		return rec.fromContainer(c, c.Trailer, v)
	}, nil
}

package ffd

import (
	"log"
	"reflect"

	"github.com/danderson/ffd/fragments"
)

// Marshaler is the interface implemented by types that can marshal
// themselves to a wire payload.
//
// MarshalFFD returns only the value's payload. Tag and length framing
// is added by the enclosing record.
type Marshaler interface {
	MarshalFFD() ([]byte, error)
}

var marshalerType = reflect.TypeFor[Marshaler]()

// An encoderFunc returns the wire payload of v.
type encoderFunc func(v reflect.Value) ([]byte, error)

const debugMapping = false

func debugf(msg string, args ...any) {
	if !debugMapping {
		return
	}
	log.Printf(msg, args...)
}

var encoders cache[encoderFunc]

func init() {
	// This needs to be an init func to break the initialization cycle
	// between the cache and the calls to the cache within
	// uncachedEncoder.
	encoders.Init(uncachedEncoder)
	decoders.Init(uncachedDecoder)
}

// encoderFor returns the encoder func for the given type, if the type
// is representable in the wire format.
func encoderFor(t reflect.Type) (encoderFunc, error) {
	return encoders.Get(t)
}

// marshalValue returns the wire payload of v.
func marshalValue(v any) ([]byte, error) {
	if v == nil {
		return nil, typeErr(nil, "cannot marshal nil interface")
	}
	val := reflect.ValueOf(v)
	enc, err := encoderFor(val.Type())
	if err != nil {
		return nil, err
	}
	return enc(val)
}

func uncachedEncoder(t reflect.Type) (encoderFunc, error) {
	debugf("encoderFor(%s)", t)
	defer debugf("end encoderFor(%s)", t)

	// If a value's pointer type implements Marshaler, we can avoid a
	// value copy by using it. But we can only use it for addressable
	// values, which requires an additional runtime check.
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(marshalerType) {
		return newCondAddrMarshalEncoder(t), nil
	} else if t.Implements(marshalerType) {
		return newMarshalEncoder(), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return newPtrEncoder(t)
	case reflect.Bool:
		return newBoolEncoder(), nil
	case reflect.Int, reflect.Uint:
		return nil, typeErr(t, "int and uint aren't portable, use fixed width unsigned integers")
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return nil, typeErr(t, "signed integers have no wire encoding, use unsigned integers")
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return newUintEncoder(), nil
	case reflect.String:
		return newStringEncoder(), nil
	case reflect.Slice, reflect.Array:
		if isBytesType(t) {
			return newBytesEncoder(t), nil
		}
		return nil, typeErr(t, "arrays of values must be declared as repeated struct fields")
	case reflect.Struct:
		return newRecordEncoder(t)
	}
	return nil, typeErr(t, "no ffd mapping for type")
}

func newCondAddrMarshalEncoder(t reflect.Type) encoderFunc {
	ptr := newMarshalEncoder()
	if t.Implements(marshalerType) {
		val := newMarshalEncoder()
		return func(v reflect.Value) ([]byte, error) {
			if v.CanAddr() {
				return ptr(v.Addr())
			}
			return val(v)
		}
	}
	return func(v reflect.Value) ([]byte, error) {
		if !v.CanAddr() {
			// Copy into an addressable value, pointer receivers
			// don't mutate during marshaling.
			cp := reflect.New(t)
			cp.Elem().Set(v)
			return ptr(cp)
		}
		return ptr(v.Addr())
	}
}

func newMarshalEncoder() encoderFunc {
	return func(v reflect.Value) ([]byte, error) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			v = reflect.New(v.Type().Elem())
		}
		m := v.Interface().(Marshaler)
		return m.MarshalFFD()
	}
}

func newPtrEncoder(t reflect.Type) (encoderFunc, error) {
	elemEnc, err := encoders.getLocked(t.Elem())
	if err != nil {
		return nil, err
	}
	fn := func(v reflect.Value) ([]byte, error) {
		if v.IsNil() {
			return elemEnc(reflect.Zero(t.Elem()))
		}
		return elemEnc(v.Elem())
	}
	return fn, nil
}

func newBoolEncoder() encoderFunc {
	return func(v reflect.Value) ([]byte, error) {
		if v.Bool() {
			return []byte{1}, nil
		}
		return []byte{}, nil
	}
}

func newUintEncoder() encoderFunc {
	return func(v reflect.Value) ([]byte, error) {
		return fragments.AppendTrimmed([]byte{}, v.Uint()), nil
	}
}

func newStringEncoder() encoderFunc {
	return func(v reflect.Value) ([]byte, error) {
		return encodeString(v.String())
	}
}

func newBytesEncoder(t reflect.Type) encoderFunc {
	if t.Kind() == reflect.Slice {
		return func(v reflect.Value) ([]byte, error) {
			return append([]byte{}, v.Bytes()...), nil
		}
	}
	return func(v reflect.Value) ([]byte, error) {
		ret := make([]byte, v.Len())
		for i := range ret {
			ret[i] = byte(v.Index(i).Uint())
		}
		return ret, nil
	}
}

// newRecordEncoder returns an encoder for a struct nested as a field
// value, which encodes as the structured TLV of its fields.
func newRecordEncoder(t reflect.Type) (encoderFunc, error) {
	rec, err := newRecordMapping(t, encoders.getLocked, nil)
	if err != nil {
		return nil, err
	}
	if rec.info.Header != nil {
		return nil, typeErr(t, "record with a header field %s cannot be nested in another record", rec.info.Header.Name)
	}
	return func(v reflect.Value) ([]byte, error) {
		c, err := rec.toContainer(v)
		if err != nil {
			return nil, err
		}
		return c.Encode()
	}, nil
}

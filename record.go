package ffd

import (
	"fmt"
	"reflect"
	"sync"
)

// recordMapping is the compiled conversion between a schema-mapped
// struct and a [Container].
//
// A mapping may be compiled for one direction only, in which case
// the other direction's funcs are nil.
type recordMapping struct {
	info *structInfo
	enc  []encoderFunc // parallel to info.Fields
	dec  []decoderFunc // parallel to info.Fields
}

// newRecordMapping compiles the mapping for t, looking up field
// codecs with the given funcs. A nil lookup func skips that
// direction.
func newRecordMapping(t reflect.Type, encLookup func(reflect.Type) (encoderFunc, error), decLookup func(reflect.Type) (decoderFunc, error)) (*recordMapping, error) {
	info, err := getStructInfo(t)
	if err != nil {
		return nil, err
	}
	ret := &recordMapping{info: info}
	for _, f := range info.Fields {
		debugf("%s.%s{%s}", info.Name, f.Name, f.Elem)
		if encLookup != nil {
			enc, err := encLookup(f.Elem)
			if err != nil {
				return nil, err
			}
			ret.enc = append(ret.enc, enc)
		}
		if decLookup != nil {
			dec, err := decLookup(f.Elem)
			if err != nil {
				return nil, err
			}
			ret.dec = append(ret.dec, dec)
		}
	}
	return ret, nil
}

var records sync.Map // reflect.Type -> cacheResult[*recordMapping]

// recordFor returns the bidirectional mapping for top-level record
// type t.
func recordFor(t reflect.Type) (*recordMapping, error) {
	if r, ok := records.Load(t); ok {
		r := r.(cacheResult[*recordMapping])
		return r.val, r.err
	}
	rec, err := newRecordMapping(t, encoderFor, decoderFor)
	r, _ := records.LoadOrStore(t, cacheResult[*recordMapping]{rec, err})
	return r.(cacheResult[*recordMapping]).val, r.(cacheResult[*recordMapping]).err
}

// toContainer returns the container holding the tagged fields of
// struct value v. The signature field, if any, is placed in the
// container's Trailer.
func (r *recordMapping) toContainer(v reflect.Value) (*Container, error) {
	ret := NewContainer()
	for i, f := range r.info.Fields {
		enc := r.enc[i]
		fv := f.GetWithZero(v)
		switch {
		case f.Optional:
			if fv.IsNil() {
				continue
			}
			bs, err := r.encodeOne(f, enc, fv.Elem())
			if err != nil {
				return nil, err
			}
			ret.SetRaw(f.Tag, bs)
		case f.Repeated:
			for j := range fv.Len() {
				bs, err := r.encodeOne(f, enc, fv.Index(j))
				if err != nil {
					return nil, err
				}
				ret.PushRaw(f.Tag, bs)
			}
		default:
			bs, err := r.encodeOne(f, enc, fv)
			if err != nil {
				return nil, err
			}
			ret.SetRaw(f.Tag, bs)
		}
	}

	if sig := r.info.Signature; sig != nil {
		fv := sig.GetWithZero(v)
		if sig.Optional {
			if !fv.IsNil() {
				ret.Trailer = sigBytes(fv.Elem())
			}
		} else {
			ret.Trailer = sigBytes(fv)
		}
	}
	return ret, nil
}

func (r *recordMapping) encodeOne(f *structField, enc encoderFunc, v reflect.Value) ([]byte, error) {
	bs, err := enc(v)
	if err != nil {
		return nil, err
	}
	return f.pad(bs)
}

// fromContainer decodes c's records and the signature bytes sig into
// v, which must be a settable struct value.
//
// fromContainer decodes into a fresh value and only stores it into v
// on success. Fields that are not on the wire, including the header,
// are left at their zero value.
func (r *recordMapping) fromContainer(c *Container, sig []byte, v reflect.Value) error {
	out := reflect.New(r.info.Type).Elem()
	for i, f := range r.info.Fields {
		dec := r.dec[i]
		raws := c.fields[f.Tag]
		switch {
		case f.Optional:
			if len(raws) == 0 {
				continue
			}
			elem := reflect.New(f.Elem)
			if err := r.decodeOne(f, dec, raws[0], elem.Elem()); err != nil {
				return err
			}
			f.GetWithAlloc(out).Set(elem)
		case f.Repeated:
			if len(raws) == 0 {
				continue
			}
			vals := reflect.MakeSlice(f.Type, len(raws), len(raws))
			for j, raw := range raws {
				if err := r.decodeOne(f, dec, raw, vals.Index(j)); err != nil {
					return err
				}
			}
			f.GetWithAlloc(out).Set(vals)
		default:
			if len(raws) == 0 {
				return fmt.Errorf("%w: missing mandatory tag %d (%s.%s)", ErrInvalidFormat, f.Tag, r.info.Name, f.Name)
			}
			if err := r.decodeOne(f, dec, raws[0], f.GetWithAlloc(out)); err != nil {
				return err
			}
		}
	}

	if f := r.info.Signature; f != nil {
		if err := decodeSignature(f, sig, out); err != nil {
			return err
		}
	}

	v.Set(out)
	return nil
}

func (r *recordMapping) decodeOne(f *structField, dec decoderFunc, bs []byte, v reflect.Value) error {
	bs, err := f.unpad(bs)
	if err != nil {
		return err
	}
	return dec(bs, v)
}

// sigBytes returns the raw bytes of a []byte or [N]byte value.
func sigBytes(v reflect.Value) []byte {
	ret := make([]byte, v.Len())
	for i := range ret {
		ret[i] = byte(v.Index(i).Uint())
	}
	return ret
}

// decodeSignature stores the bytes that trail a record body into the
// record's signature field.
func decodeSignature(f *structField, sig []byte, out reflect.Value) error {
	if f.Optional && len(sig) == 0 {
		return nil
	}
	val := reflect.New(f.Elem).Elem()
	if f.Elem.Kind() == reflect.Array {
		if err := newFixedBytesDecoder(f.Elem)(sig, val); err != nil {
			return err
		}
	} else if err := newBytesDecoder()(sig, val); err != nil {
		return err
	}
	fv := f.GetWithAlloc(out)
	if f.Optional {
		ptr := reflect.New(f.Elem)
		ptr.Elem().Set(val)
		fv.Set(ptr)
	} else {
		fv.Set(val)
	}
	return nil
}

package ffd

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// fieldRole is the part a struct field plays in a record's wire
// layout.
type fieldRole uint8

const (
	// roleDefault fields are not on the wire. They decode as their
	// zero value and are ignored when encoding.
	roleDefault fieldRole = iota
	// roleTagged fields are TLV records in the record body.
	roleTagged
	// roleHeader is the record's own outer tag, which frames the
	// body.
	roleHeader
	// roleSignature is the data following the record body, outside
	// of the body's length.
	roleSignature
)

func (r fieldRole) String() string {
	switch r {
	case roleDefault:
		return "default"
	case roleTagged:
		return "tagged"
	case roleHeader:
		return "header"
	case roleSignature:
		return "signature"
	default:
		return fmt.Sprintf("fieldRole(%d)", uint8(r))
	}
}

// defaultFill is the padding byte used by `pad=N` fields that do not
// specify a fill byte.
const defaultFill = ' '

// structField is the information about a struct field that needs to
// be marshaled/unmarshaled.
type structField struct {
	Name  string
	Index [][]int
	// Type is the field's declared type.
	Type reflect.Type
	// Elem is the type of the field's wire values: Type with the
	// optional pointer or repeated slice removed.
	Elem reflect.Type

	Role fieldRole
	Tag  uint16

	// Optional is whether the field may be absent. Optional fields
	// are pointers.
	Optional bool
	// Repeated is whether the field holds every value for its
	// tag. Repeated fields are slices.
	Repeated bool

	// Fixed, if nonzero, is the exact payload length.
	Fixed int
	// Pad, if nonzero, is the length to which payloads are
	// right-padded with Fill.
	Pad  int
	Fill byte
}

// GetWithZero loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithZero returns a non-settable zero value of the field.
func (f *structField) GetWithZero(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				return reflect.Zero(f.Type)
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// GetWithAlloc loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithAlloc allocates zero values appropriately. The returned
// [reflect.Value] is settable.
func (f *structField) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// pad applies the field's padding rules to an encoded payload.
func (f *structField) pad(bs []byte) ([]byte, error) {
	switch {
	case f.Fixed > 0:
		if len(bs) != f.Fixed {
			return nil, fmt.Errorf("%w: %s is %d bytes, must be exactly %d", ErrInvalidLength, f.Name, len(bs), f.Fixed)
		}
	case f.Pad > 0:
		if len(bs) > f.Pad {
			return nil, fmt.Errorf("%w: %s is %d bytes, max %d", ErrInvalidLength, f.Name, len(bs), f.Pad)
		}
		for len(bs) < f.Pad {
			bs = append(bs, f.Fill)
		}
	}
	return bs, nil
}

// unpad checks a received payload against the field's padding rules,
// and returns the payload with any padding removed.
func (f *structField) unpad(bs []byte) ([]byte, error) {
	switch {
	case f.Fixed > 0:
		if len(bs) != f.Fixed {
			return nil, fmt.Errorf("%w: %s is %d bytes, must be exactly %d", ErrInvalidLength, f.Name, len(bs), f.Fixed)
		}
	case f.Pad > 0:
		if len(bs) > f.Pad {
			return nil, fmt.Errorf("%w: %s is %d bytes, max %d", ErrInvalidLength, f.Name, len(bs), f.Pad)
		}
		for len(bs) > 0 && bs[len(bs)-1] == f.Fill {
			bs = bs[:len(bs)-1]
		}
	}
	return bs, nil
}

func (f *structField) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s: %s at %v, %s", f.Name, f.Type, f.Index, f.Role)
	if f.Role == roleTagged {
		fmt.Fprintf(&ret, " %d", f.Tag)
	}
	if f.Optional {
		ret.WriteString(" optional")
	}
	if f.Repeated {
		ret.WriteString(" repeated")
	}
	if f.Fixed > 0 {
		fmt.Fprintf(&ret, " fixed=%d", f.Fixed)
	}
	if f.Pad > 0 {
		fmt.Fprintf(&ret, " pad=%d fill=%#02x", f.Pad, f.Fill)
	}
	return ret.String()
}

// structInfo is the information about a struct relevant to
// marshaling/unmarshaling.
type structInfo struct {
	// Name is the struct's name, for use in diagnostics.
	Name string
	// Type is the struct's type, for use in diagnostics.
	Type reflect.Type

	// Header is the field holding the record's outer tag, or nil if
	// the record is only usable as a nested value.
	Header *structField
	// Signature is the field holding data that trails the record
	// body, or nil.
	Signature *structField
	// Fields are the record's tagged fields, in declaration order.
	Fields []*structField
	// Defaults are the fields that are not on the wire.
	Defaults []*structField
}

func (s *structInfo) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s: record, fields:\n", s.Name)
	for _, f := range s.all() {
		ret.WriteString(f.String())
		ret.WriteByte('\n')
	}
	return ret.String()
}

func (s *structInfo) all() []*structField {
	var ret []*structField
	if s.Header != nil {
		ret = append(ret, s.Header)
	}
	ret = append(ret, s.Fields...)
	if s.Signature != nil {
		ret = append(ret, s.Signature)
	}
	return append(ret, s.Defaults...)
}

var structInfos sync.Map // reflect.Type -> cacheResult[*structInfo]

// getStructInfo returns the structInfo for t.
//
// getStructInfo returns an error if t is not a struct, or if the
// struct's field declarations are malformed.
func getStructInfo(t reflect.Type) (*structInfo, error) {
	if r, ok := structInfos.Load(t); ok {
		r := r.(cacheResult[*structInfo])
		return r.val, r.err
	}
	ret, err := parseStructInfo(t)
	if err != nil {
		err = TypeError{t.String(), err}
	}
	r, _ := structInfos.LoadOrStore(t, cacheResult[*structInfo]{ret, err})
	return r.(cacheResult[*structInfo]).val, r.(cacheResult[*structInfo]).err
}

func parseStructInfo(t reflect.Type) (*structInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	ret := &structInfo{
		Name: t.String(),
		Type: t,
	}

	seen := map[uint16]*structField{}
	for _, field := range structFields(t) {
		if !field.IsExported() {
			continue
		}
		fieldInfo := &structField{
			Name:  field.Name,
			Type:  field.Type,
			Elem:  field.Type,
			Index: allocSteps(t, field.Index),
		}
		if err := parseStructTag(field, fieldInfo); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", ret.Name, field.Name, err)
		}

		switch fieldInfo.Role {
		case roleDefault:
			ret.Defaults = append(ret.Defaults, fieldInfo)
		case roleHeader:
			if ret.Header != nil {
				return nil, fmt.Errorf("multiple header fields in %s: %s and %s", ret.Name, ret.Header.Name, fieldInfo.Name)
			}
			if fieldInfo.Type.Kind() != reflect.Uint16 {
				return nil, fmt.Errorf("header field %s.%s must be a uint16, not %s", ret.Name, fieldInfo.Name, fieldInfo.Type)
			}
			ret.Header = fieldInfo
		case roleSignature:
			if ret.Signature != nil {
				return nil, fmt.Errorf("multiple signature fields in %s: %s and %s", ret.Name, ret.Signature.Name, fieldInfo.Name)
			}
			if err := classifySignature(fieldInfo); err != nil {
				return nil, fmt.Errorf("signature field %s.%s: %w", ret.Name, fieldInfo.Name, err)
			}
			ret.Signature = fieldInfo
		case roleTagged:
			if prev := seen[fieldInfo.Tag]; prev != nil {
				return nil, fmt.Errorf("duplicate tag %d in %s, used by %s and %s", fieldInfo.Tag, ret.Name, prev.Name, fieldInfo.Name)
			}
			seen[fieldInfo.Tag] = fieldInfo
			if err := classifyTagged(fieldInfo); err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", ret.Name, fieldInfo.Name, err)
			}
			ret.Fields = append(ret.Fields, fieldInfo)
		}
	}

	return ret, nil
}

// parseStructTag fills in f from the information contained in
// field's "ffd" struct tag.
func parseStructTag(field reflect.StructField, f *structField) error {
	tag, ok := field.Tag.Lookup("ffd")
	if !ok || tag == "-" {
		f.Role = roleDefault
		return nil
	}

	parts := strings.Split(tag, ",")
	switch parts[0] {
	case "header":
		f.Role = roleHeader
	case "signature":
		f.Role = roleSignature
	default:
		n, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return fmt.Errorf("invalid tag number %q: %w", parts[0], err)
		}
		f.Role = roleTagged
		f.Tag = uint16(n)
	}

	fillSet := false
	for _, opt := range parts[1:] {
		key, val, _ := strings.Cut(opt, "=")
		switch key {
		case "fixed", "pad":
			n, err := strconv.ParseUint(val, 10, 16)
			if err != nil || n == 0 {
				return fmt.Errorf("invalid %s length %q", key, val)
			}
			if key == "fixed" {
				f.Fixed = int(n)
			} else {
				f.Pad = int(n)
			}
		case "fill":
			n, err := strconv.ParseUint(val, 0, 8)
			if err != nil {
				return fmt.Errorf("invalid fill byte %q: %w", val, err)
			}
			f.Fill = byte(n)
			fillSet = true
		default:
			return fmt.Errorf("unknown option %q", opt)
		}
	}

	if f.Role != roleTagged && (f.Fixed > 0 || f.Pad > 0 || fillSet) {
		return fmt.Errorf("padding options are only valid on tagged fields")
	}
	if f.Fixed > 0 && f.Pad > 0 {
		return errors.New("fixed and pad are mutually exclusive")
	}
	if fillSet && f.Pad == 0 {
		return errors.New("fill requires pad")
	}
	if f.Pad > 0 && !fillSet {
		f.Fill = defaultFill
	}
	return nil
}

// classifyTagged derives a tagged field's optionality and
// multiplicity from its declared type.
func classifyTagged(f *structField) error {
	t := f.Type
	switch {
	case t.Kind() == reflect.Pointer:
		if isRepeatedType(t.Elem()) {
			return errors.New("field cannot be both optional and repeated")
		}
		f.Optional = true
		f.Elem = t.Elem()
	case isRepeatedType(t):
		f.Repeated = true
		f.Elem = t.Elem()
	}
	if f.Elem.Kind() == reflect.Pointer {
		return fmt.Errorf("invalid element type %s", f.Elem)
	}
	return nil
}

// classifySignature checks that a signature field holds raw bytes.
func classifySignature(f *structField) error {
	t := f.Type
	if t.Kind() == reflect.Pointer {
		f.Optional = true
		t = t.Elem()
	}
	if !isBytesType(t) {
		return fmt.Errorf("must be []byte, [N]byte or a pointer to one, not %s", f.Type)
	}
	f.Elem = t
	return nil
}

// isRepeatedType reports whether t is a slice used to hold repeated
// values, as opposed to a []byte holding a single raw value.
func isRepeatedType(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && !isBytesType(t)
}

var byteType = reflect.TypeFor[byte]()

// isBytesType reports whether t is []byte or [N]byte. Slices of named
// byte-sized types, such as enums, are repeated values instead.
func isBytesType(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem() == byteType
}

// isRecordType reports whether t is a schema-mapped struct, as opposed
// to a struct with its own Marshaler.
func isRecordType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	return !t.Implements(marshalerType) && !reflect.PointerTo(t).Implements(marshalerType)
}

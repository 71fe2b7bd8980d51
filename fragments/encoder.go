package fragments

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxLength is the largest payload a single record can carry.
const MaxLength = 0xFFFF

// ErrFieldTooBig is the error returned when a record payload does not
// fit in the 16-bit record length.
var ErrFieldTooBig = errors.New("field too big")

// An Encoder writes TLV records to a byte slice.
//
// All multi-byte values are little-endian.
type Encoder struct {
	// Out is the encoded output.
	Out []byte
}

// Write writes bs as-is to the output.
func (e *Encoder) Write(bs []byte) {
	e.Out = append(e.Out, bs...)
}

// Uint16 writes a little-endian uint16.
func (e *Encoder) Uint16(u16 uint16) {
	e.Out = binary.LittleEndian.AppendUint16(e.Out, u16)
}

// Trimmed writes u64 in little-endian byte order, omitting all
// trailing zero bytes. Zero writes nothing.
func (e *Encoder) Trimmed(u64 uint64) {
	e.Out = AppendTrimmed(e.Out, u64)
}

// Record writes one tag-length-value record.
func (e *Encoder) Record(tag uint16, val []byte) error {
	if len(val) > MaxLength {
		return fmt.Errorf("%w: tag %d has %d bytes, max %d", ErrFieldTooBig, tag, len(val), MaxLength)
	}
	e.Uint16(tag)
	e.Uint16(uint16(len(val)))
	e.Write(val)
	return nil
}

// AppendTrimmed appends the trimmed little-endian encoding of u64 to
// bs.
func AppendTrimmed(bs []byte, u64 uint64) []byte {
	for u64 != 0 {
		bs = append(bs, byte(u64))
		u64 >>= 8
	}
	return bs
}

package ffd

import (
	"slices"

	"github.com/danderson/ffd/internal/ffdtest"
)

// Simple is a document with simple fields.
type Simple struct {
	Type uint16 `ffd:"header"`
	A    uint32 `ffd:"1000"`
	B    string `ffd:"1001"`
}

// Item is a nested record.
type Item struct {
	Name     string  `ffd:"1030"`
	Price    Decimal `ffd:"1079"`
	Quantity Decimal `ffd:"1023"`
	Unit     *string `ffd:"1197"`
}

// PaymentKind is an enumeration whose unknown values are retained.
type PaymentKind uint8

const (
	PaymentFull PaymentKind = iota + 1
	PaymentPartial
	PaymentCredit
)

var paymentKinds = RetainUnknown("PaymentKind", PaymentFull, PaymentPartial, PaymentCredit)

func (p PaymentKind) MarshalFFD() ([]byte, error) { return paymentKinds.Encode(p), nil }
func (p *PaymentKind) UnmarshalFFD(bs []byte) (err error) {
	*p, err = paymentKinds.Decode(bs)
	return err
}

// ReceiptStatus is an enumeration whose unknown values decode as
// StatusUnknown.
type ReceiptStatus uint16

const (
	StatusOpen ReceiptStatus = iota + 1
	StatusClosed
	StatusUnknown ReceiptStatus = 0xFFFF
)

var receiptStatuses = SentinelUnknown("ReceiptStatus", StatusUnknown, StatusOpen, StatusClosed)

func (s ReceiptStatus) MarshalFFD() ([]byte, error) { return receiptStatuses.Encode(s), nil }
func (s *ReceiptStatus) UnmarshalFFD(bs []byte) (err error) {
	*s, err = receiptStatuses.Decode(bs)
	return err
}

// TaxSystems is a flag set.
type TaxSystems uint8

var taxSystemFlags = FlagTable{
	{"general", 1 << 0},
	{"simplified", 1 << 1},
	{"patent", 1 << 5},
}

// Receipt is a document exercising every field shape.
type Receipt struct {
	Type      uint16        `ffd:"header"`
	User      string        `ffd:"1048"`
	Date      LocalTime     `ffd:"1012"`
	Total     Decimal       `ffd:"1020"`
	Email     *string       `ffd:"1117"`
	Items     []Item        `ffd:"1059"`
	Taxation  TaxSystems    `ffd:"1055"`
	Payment   PaymentKind   `ffd:"1054"`
	Status    ReceiptStatus `ffd:"1206"`
	Online    bool          `ffd:"1002"`
	RegNumber string        `ffd:"1037,pad=20"`
	Drive     [16]byte      `ffd:"1041,fixed=16"`
	Signature *[4]byte      `ffd:"signature"`

	// Source is not on the wire.
	Source string
}

// Signed is a bare record with a mandatory signature.
type Signed struct {
	A   uint8   `ffd:"1000"`
	Sig [2]byte `ffd:"signature"`
}

// Base is embedded in Extended.
type Base struct {
	A uint16 `ffd:"1000"`
}

// Extended is a document that embeds another struct.
type Extended struct {
	*Base
	Type uint16 `ffd:"header"`
	B    uint16 `ffd:"1001"`
}

// rec returns the wire encoding of one record.
func rec(tag uint16, val ...byte) []byte {
	return ffdtest.Record(tag, val...)
}

// cat concatenates byte slices.
func cat(bss ...[]byte) []byte {
	return slices.Concat(bss...)
}

func ptr[T any](v T) *T {
	return &v
}

func mustDecode(bs []byte) *Container {
	c, err := Decode(bs)
	if err != nil {
		panic(err)
	}
	return c
}

package ffd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestKindsFor(t *testing.T) {
	got, err := KindsFor(Receipt{}, &Signed{})
	if err != nil {
		t.Fatalf("KindsFor() got err: %v", err)
	}
	want := Kinds{
		1000: KindInt,
		1002: KindInt,
		1012: KindInt,
		1020: KindDecimal,
		1023: KindDecimal,
		1030: KindString,
		1037: KindString,
		1041: KindBytes,
		1048: KindString,
		1054: KindInt,
		1055: KindInt,
		1059: KindContainer,
		1079: KindDecimal,
		1117: KindString,
		1197: KindString,
		1206: KindInt,
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("KindsFor() wrong result (-got+want):\n%s", diff)
	}

	type Conflict struct {
		A string `ffd:"1000"`
	}
	if _, err := KindsFor(Simple{}, Conflict{}); err == nil {
		t.Error("KindsFor() accepted conflicting kinds for tag 1000")
	}
	if _, err := KindsFor(uint16(0)); err == nil {
		t.Error("KindsFor() accepted a non-struct")
	}
}

func TestDescribe(t *testing.T) {
	item := cat(rec(1030, 'A'), rec(1079, 2, 150))
	c := mustDecode(cat(
		rec(1000, 0x56, 0x34, 0x12),
		rec(1001, 'h', 'i'),
		rec(1020, 2, 150),
		rec(1021),
		rec(1059, item...),
		rec(1060, 1, 2, 3, 4, 5, 6, 7, 8, 9),
		rec(1080, 1, 2),
	))
	kinds := Kinds{
		1000: KindInt,
		1001: KindString,
		1020: KindDecimal,
		1021: KindDecimal,
		1030: KindString,
		1059: KindContainer,
		1060: KindInt,
		1079: KindDecimal,
	}

	got := Describe(c, kinds)
	want := []Entry{
		{Tag: 1000, Kind: KindInt, Value: uint64(0x123456)},
		{Tag: 1001, Kind: KindString, Value: "hi"},
		{Tag: 1020, Kind: KindDecimal, Value: "1.50"},
		{Tag: 1021, Kind: KindBytes, Value: ""},
		{Tag: 1059, Kind: KindContainer, Fields: []Entry{
			{Tag: 1030, Kind: KindString, Value: "A"},
			{Tag: 1079, Kind: KindDecimal, Value: "1.50"},
		}},
		{Tag: 1060, Kind: KindBytes, Value: "010203040506070809"},
		{Tag: 1080, Kind: KindBytes, Value: "0102"},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Describe() wrong result (-got+want):\n%s", diff)
	}
}

func TestKindText(t *testing.T) {
	for kind := range kindNames {
		bs, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("%s.MarshalText() got err: %v", kind, err)
		}
		var back Kind
		if err := back.UnmarshalText(bs); err != nil {
			t.Fatalf("UnmarshalText(%q) got err: %v", bs, err)
		}
		if back != kind {
			t.Errorf("UnmarshalText(%q) = %s, want %s", bs, back, kind)
		}
	}
	if _, err := Kind(42).MarshalText(); err == nil {
		t.Error("MarshalText() of an undefined kind succeeded")
	}
	if got, want := Kind(42).String(), "Kind(42)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	const doc = `
1000: int
1001: string
1059: container
1079: decimal
`
	var got Kinds
	if err := yaml.Unmarshal([]byte(doc), &got); err != nil {
		t.Fatalf("yaml.Unmarshal() got err: %v", err)
	}
	want := Kinds{1000: KindInt, 1001: KindString, 1059: KindContainer, 1079: KindDecimal}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("yaml.Unmarshal() wrong result (-got+want):\n%s", diff)
	}

	var bad Kinds
	if err := yaml.Unmarshal([]byte("1000: float\n"), &bad); err == nil {
		t.Error("yaml.Unmarshal() accepted an unknown kind")
	}
}

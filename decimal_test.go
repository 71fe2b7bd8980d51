package ffd

import (
	"errors"
	"testing"
	"time"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    Decimal
		wantErr error
	}{
		{in: "12.50", want: Decimal{125, 1}},
		{in: "12.0", want: Decimal{12, 0}},
		{in: "12.", want: Decimal{12, 0}},
		{in: "12", want: Decimal{12, 0}},
		{in: "100", want: Decimal{100, 0}},
		{in: "0.001", want: Decimal{1, 3}},
		{in: ".5", want: Decimal{5, 1}},
		{in: "1234.5678", want: Decimal{12345678, 4}},
		{in: "0.000", want: Decimal{0, 0}},

		{in: "", wantErr: ErrInvalidFormat},
		{in: ".", wantErr: ErrInvalidFormat},
		{in: "1.2.3", wantErr: ErrInvalidFormat},
		{in: "1,5", wantErr: ErrInvalidFormat},
		{in: "-1", wantErr: ErrInvalidFormat},
		{in: "abc", wantErr: ErrInvalidFormat},
		{in: "99999999999999999999", wantErr: ErrNumberOutOfRange},
	}

	for _, tc := range tests {
		got, err := ParseDecimal(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ParseDecimal(%q) got err %v, want %v", tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimal(%q) got err: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDecimal(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestDecimalFormat(t *testing.T) {
	tests := []struct {
		in        Decimal
		wantStr   string
		wantFloat float64
	}{
		{Decimal{125, 1}, "12.5", 12.5},
		{Decimal{1, 3}, "0.001", 0.001},
		{Decimal{5, 0}, "5", 5},
		{Decimal{100, 2}, "1.00", 1},
		{Decimal{0, 2}, "0.00", 0},
		{DecimalFromUint(42), "42", 42},
	}

	for _, tc := range tests {
		if got := tc.in.String(); got != tc.wantStr {
			t.Errorf("%#v.String() = %q, want %q", tc.in, got, tc.wantStr)
		}
		if got := tc.in.Float64(); got != tc.wantFloat {
			t.Errorf("%#v.Float64() = %v, want %v", tc.in, got, tc.wantFloat)
		}
	}
}

func TestLocalTime(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	in := time.Date(2024, 1, 2, 3, 4, 5, 999, msk)

	got, err := LocalTimeOf(in)
	if err != nil {
		t.Fatalf("LocalTimeOf(%s) got err: %v", in, err)
	}
	if want := LocalTime(1704164645); got != want {
		t.Fatalf("LocalTimeOf(%s) = %d, want %d", in, got, want)
	}
	if got, want := got.String(), "2024-01-02T03:04:05"; got != want {
		t.Errorf("LocalTime.String() = %q, want %q", got, want)
	}
	back := got.In(msk)
	if want := in.Truncate(time.Second); !back.Equal(want) {
		t.Errorf("LocalTime.In(MSK) = %s, want %s", back, want)
	}

	if _, err := LocalTimeOf(time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrNumberOutOfRange) {
		t.Errorf("LocalTimeOf(1969) got err %v, want %v", err, ErrNumberOutOfRange)
	}
	if _, err := LocalTimeOf(time.Date(2107, 1, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrNumberOutOfRange) {
		t.Errorf("LocalTimeOf(2107) got err %v, want %v", err, ErrNumberOutOfRange)
	}
}

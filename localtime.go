package ffd

import (
	"fmt"
	"math"
	"time"

	"github.com/danderson/ffd/fragments"
)

// LocalTime is a timestamp in the seconds-since-epoch form used by
// fiscal devices. The count is taken in the device's local civil
// time rather than UTC, and the device's time zone is not recorded,
// so converting to and from [time.Time] only preserves the wall
// clock reading to the second.
type LocalTime uint32

// LocalTimeOf returns the LocalTime with the same wall clock reading
// as t, in t's location.
func LocalTimeOf(t time.Time) (LocalTime, error) {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC).Unix()
	if wall < 0 || wall > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s not representable as a local timestamp", ErrNumberOutOfRange, t)
	}
	return LocalTime(wall), nil
}

// In returns the time with l's wall clock reading in loc.
func (l LocalTime) In(loc *time.Location) time.Time {
	u := time.Unix(int64(l), 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, loc)
}

func (l LocalTime) String() string {
	return l.In(time.UTC).Format("2006-01-02T15:04:05")
}

func (l LocalTime) MarshalFFD() ([]byte, error) {
	return fragments.AppendTrimmed(nil, uint64(l)), nil
}

func (l *LocalTime) UnmarshalFFD(bs []byte) error {
	u, err := fragments.Trimmed(bs, 4)
	if err != nil {
		return rangeErr(err)
	}
	*l = LocalTime(u)
	return nil
}

func (LocalTime) KindFFD() Kind { return KindInt }

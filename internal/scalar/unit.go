package scalar

import (
	"fmt"
	"strings"
	"time"
)

// Unit is the resolution used to turn point-in-time values into integer
// timestamps counted from the unix epoch.
type Unit uint8

const (
	Millisecond Unit = iota
	Day
	Second
	Microsecond
	Nanosecond
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Second:
		return "second"
	case Microsecond:
		return "microsecond"
	case Nanosecond:
		return "nanosecond"
	default:
		return "millisecond"
	}
}

// ParseUnit accepts long and short unit names. An empty name is milliseconds.
func ParseUnit(name string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "millisecond", "milliseconds", "ms", "millis":
		return Millisecond, nil
	case "day", "days", "d":
		return Day, nil
	case "second", "seconds", "s", "sec":
		return Second, nil
	case "microsecond", "microseconds", "us", "micros":
		return Microsecond, nil
	case "nanosecond", "nanoseconds", "ns", "nanos":
		return Nanosecond, nil
	default:
		return Millisecond, fmt.Errorf("scalar: unknown time unit %q", name)
	}
}

// Timestamp counts u units between the epoch and t.
func (u Unit) Timestamp(t time.Time) int64 {
	switch u {
	case Day:
		return t.Unix() / 86400
	case Second:
		return t.Unix()
	case Microsecond:
		return t.UnixMicro()
	case Nanosecond:
		return t.UnixNano()
	default:
		return t.UnixMilli()
	}
}

// Time is the inverse of Timestamp.
func (u Unit) Time(ts int64) time.Time {
	switch u {
	case Day:
		return time.Unix(ts*86400, 0).UTC()
	case Second:
		return time.Unix(ts, 0).UTC()
	case Microsecond:
		return time.UnixMicro(ts).UTC()
	case Nanosecond:
		return time.Unix(0, ts).UTC()
	default:
		return time.UnixMilli(ts).UTC()
	}
}

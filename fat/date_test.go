package fat

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input uint16
		want  time.Time
	}{
		{name: "zero", input: 0, want: time.Time{}},
		{name: "day 0", input: 1 << 5, want: time.Time{}},
		{name: "month 0", input: 1, want: time.Time{}},
		{name: "epoch", input: 1<<5 | 1, want: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "some date", input: 41<<9 | 3<<5 | 14, want: time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "month 13 rolls over", input: 13<<5 | 1, want: time.Date(1981, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDate(tt.input); !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input uint16
		want  time.Time
	}{
		{name: "midnight", input: 0, want: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "afternoon", input: 15<<11 | 9<<5 | 13, want: time.Date(1, 1, 1, 15, 9, 26, 0, time.UTC)},
		{name: "last valid", input: 23<<11 | 59<<5 | 29, want: time.Date(1, 1, 1, 23, 59, 58, 0, time.UTC)},
		{name: "out of range", input: 0xFFFF, want: time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTime(tt.input); !got.Equal(tt.want) {
				t.Errorf("ParseTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeDate(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  uint16
	}{
		{name: "before 1980", input: time.Date(1970, 6, 1, 0, 0, 0, 0, time.UTC), want: 1<<5 | 1},
		{name: "some date", input: time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC), want: 41<<9 | 3<<5 | 14},
		{name: "after 2107", input: time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC), want: 127<<9 | 12<<5 | 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeDate(tt.input); got != tt.want {
				t.Errorf("EncodeDate() = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func TestEncodeTime(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  uint16
	}{
		{name: "even seconds", input: time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC), want: 15<<11 | 9<<5 | 13},
		{name: "odd seconds are rounded down", input: time.Date(2021, 3, 14, 15, 9, 27, 0, time.UTC), want: 15<<11 | 9<<5 | 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeTime(tt.input); got != tt.want {
				t.Errorf("EncodeTime() = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func Test_joinDateTime(t *testing.T) {
	stamp := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	if got := joinDateTime(EncodeDate(stamp), EncodeTime(stamp)); !got.Equal(stamp) {
		t.Errorf("joinDateTime() = %v, want %v", got, stamp)
	}
	if got := joinDateTime(0, EncodeTime(stamp)); !got.IsZero() {
		t.Errorf("joinDateTime() of an invalid date = %v, want the zero time", got)
	}
}

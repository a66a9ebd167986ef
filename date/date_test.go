package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2025-07-01", want: New(2025, time.July, 1)},
		{in: "2025-7-1", want: New(2025, time.July, 1)},
		{in: "2024-02-29", want: New(2024, time.February, 29)},
		{in: "not-a-date", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := New(2025, time.March, 9)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2025-03-09"` {
		t.Errorf("Marshal = %s, want %q", data, `"2025-03-09"`)
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestRange_Contains(t *testing.T) {
	from := New(2025, time.January, 10)
	to := New(2025, time.January, 20)

	testCases := []struct {
		name string
		r    Range
		d    Date
		want bool
	}{
		{name: "inside", r: Range{from, to}, d: New(2025, time.January, 15), want: true},
		{name: "on lower boundary", r: Range{from, to}, d: from, want: true},
		{name: "on upper boundary", r: Range{from, to}, d: to, want: true},
		{name: "before", r: Range{from, to}, d: New(2025, time.January, 9), want: false},
		{name: "after", r: Range{from, to}, d: New(2025, time.January, 21), want: false},
		{name: "open range contains anything", r: Range{}, d: New(1999, time.June, 6), want: true},
		{name: "open start", r: Range{To: to}, d: New(1999, time.June, 6), want: true},
		{name: "open end", r: Range{From: from}, d: New(2030, time.June, 6), want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Contains(tc.d); got != tc.want {
				t.Errorf("Contains(%v) = %v, want %v", tc.d, got, tc.want)
			}
		})
	}
}

func TestPeriod_Range(t *testing.T) {
	d := MustParse("2025-08-13") // a Wednesday

	testCases := []struct {
		p    Period
		from string
		to   string
	}{
		{Daily, "2025-08-13", "2025-08-13"},
		{Weekly, "2025-08-11", "2025-08-17"},
		{Monthly, "2025-08-01", "2025-08-31"},
		{Yearly, "2025-01-01", "2025-12-31"},
	}
	for _, tc := range testCases {
		t.Run(tc.p.String(), func(t *testing.T) {
			got := tc.p.Range(d)
			if got.From != MustParse(tc.from) || got.To != MustParse(tc.to) {
				t.Errorf("%s.Range(%s) = %v, want [%s, %s]", tc.p, d, got, tc.from, tc.to)
			}
		})
	}
}

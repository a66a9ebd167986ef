package tuition

import (
	"reflect"
	"strings"
	"testing"
)

func TestDecodeAccounts_Lenient(t *testing.T) {
	// A payload with the kinds of damage old exports carry: numbers as
	// strings, nulls, unknown students, a legacy per-student rate.
	payload := `{
	  "globalRate": "300",
	  "students": [
	    {"id": "s1", "name": "Amit", "gender": "male", "hourlyRate": "450"},
	    {"id": "s2", "name": "Sita", "gender": "female"},
	    {"id": "s3", "name": "   "},
	    {"name": null}
	  ],
	  "sessions": [
	    {"id": "x", "date": "2026-1-2", "bikeFare": "40", "rows": [
	      {"studentId": "s1", "duration": "1.5", "rate": null},
	      {"studentId": "s2", "duration": 1, "rate": 600},
	      {"studentId": "ghost", "duration": 1},
	      {"studentId": "s2", "duration": "zero"}
	    ]},
	    {"id": "no-date", "rows": [{"studentId": "s1", "duration": 1}]},
	    {"id": "empty", "date": "2026-01-05", "rows": []}
	  ],
	  "payments": [
	    {"id": "p1", "date": "2026-01-10", "amount": "500"},
	    {"id": "p2", "amount": 100}
	  ],
	  "meta": {"updatedAt": "1700000000000"}
	}`

	a, err := DecodeAccounts(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeAccounts: %v", err)
	}

	if a.GlobalRate != 300 {
		t.Errorf("globalRate = %v, want 300", a.GlobalRate)
	}
	if a.Meta.UpdatedAt != 1700000000000 {
		t.Errorf("updatedAt = %d, want 1700000000000", a.Meta.UpdatedAt)
	}

	// Nameless students are dropped.
	if len(a.Students) != 2 {
		t.Fatalf("students = %+v, want s1 and s2", a.Students)
	}

	// One surviving session with two valid rows.
	if len(a.Sessions) != 1 {
		t.Fatalf("sessions = %+v, want only %q", a.Sessions, "x")
	}
	rows := a.Sessions[0].Rows
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2", rows)
	}
	// s1's missing rate falls back to the legacy per-student rate, not
	// the global one.
	if rows[0].Rate != 450 {
		t.Errorf("s1 rate = %v, want legacy 450", rows[0].Rate)
	}
	if rows[1].Rate != 600 {
		t.Errorf("s2 rate = %v, want explicit 600", rows[1].Rate)
	}
	if a.Sessions[0].BikeFare != 40 {
		t.Errorf("bikeFare = %v, want 40", a.Sessions[0].BikeFare)
	}

	// The dateless payment is dropped.
	if len(a.Payments) != 1 || a.Payments[0].Amount != 500 {
		t.Errorf("payments = %+v, want only p1", a.Payments)
	}
}

func TestDecodeAccounts_LegacyRateFallsBackToGlobal(t *testing.T) {
	payload := `{
	  "globalRate": 300,
	  "students": [{"id": "s1", "name": "Amit"}],
	  "sessions": [{"id": "x", "date": "2026-01-02", "rows": [
	    {"studentId": "s1", "duration": 1}
	  ]}],
	  "payments": []
	}`
	a, err := DecodeAccounts(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeAccounts: %v", err)
	}
	if a.Sessions[0].Rows[0].Rate != 300 {
		t.Errorf("rate = %v, want global 300", a.Sessions[0].Rows[0].Rate)
	}
}

func TestDecodeAccounts_Garbage(t *testing.T) {
	if _, err := DecodeAccounts(strings.NewReader("not json")); err == nil {
		t.Error("unparseable payload should fail")
	}
	a, err := DecodeAccounts(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("empty object: %v", err)
	}
	if a.HasData() {
		t.Errorf("empty object should decode to an empty book, got %+v", a)
	}
}

func TestNormalizeAccounts_Idempotent(t *testing.T) {
	payload := `{
	  "globalRate": -5,
	  "students": [
	    {"id": "dup", "name": "First"},
	    {"id": "dup", "name": "Second"},
	    {"name": "NoID"}
	  ],
	  "sessions": [
	    {"id": "x", "date": "2026-01-02", "bikeFare": -3, "rows": [
	      {"studentId": "dup", "duration": 2, "rate": -1}
	    ]}
	  ],
	  "payments": [
	    {"id": "p", "date": "2026-01-03", "amount": -10},
	    {"id": "p", "date": "2026-01-04", "amount": 5}
	  ]
	}`
	a, err := DecodeAccounts(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeAccounts: %v", err)
	}

	// Duplicates keep their first occurrence.
	if got := a.Student("dup"); got == nil || got.Name != "First" {
		t.Errorf("duplicate id should keep the first record, got %+v", got)
	}
	// Missing ids are generated.
	for _, s := range a.Students {
		if s.ID == "" {
			t.Errorf("student %q has no id", s.Name)
		}
	}
	// Negatives clamp to zero.
	if a.GlobalRate != 0 || a.Sessions[0].BikeFare != 0 || a.Sessions[0].Rows[0].Rate != 0 || a.Payments[0].Amount != 0 {
		t.Errorf("negatives should clamp to zero: %+v", a)
	}

	// Normalizing again changes nothing.
	before := a.Clone()
	NormalizeAccounts(a)
	if !reflect.DeepEqual(before, a) {
		t.Errorf("normalize is not idempotent:\nbefore %+v\nafter  %+v", before, a)
	}
}

func TestNormalizeAccounts_ReferentialIntegrity(t *testing.T) {
	payload := `{
	  "students": [{"id": "s1", "name": "Amit"}],
	  "sessions": [
	    {"id": "x", "date": "2026-01-02", "rows": [
	      {"studentId": "s1", "duration": 1},
	      {"studentId": "missing", "duration": 1}
	    ]},
	    {"id": "y", "date": "2026-01-03", "rows": [
	      {"studentId": "missing", "duration": 1}
	    ]}
	  ],
	  "payments": []
	}`
	a, err := DecodeAccounts(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeAccounts: %v", err)
	}
	for _, sess := range a.Sessions {
		if len(sess.Rows) == 0 {
			t.Errorf("session %q has no rows", sess.ID)
		}
		for _, r := range sess.Rows {
			if a.Student(r.StudentID) == nil {
				t.Errorf("row references unknown student %q", r.StudentID)
			}
		}
	}
	if a.Session("y") != nil {
		t.Error("session with only dangling rows should be dropped")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	a := NewAccounts()
	a.GlobalRate = 400
	if _, err := a.UpsertStudent(Student{Name: "Amit"}); err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	if err := EncodeAccounts(&b, a); err != nil {
		t.Fatalf("EncodeAccounts: %v", err)
	}
	got, err := DecodeAccounts(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("DecodeAccounts: %v", err)
	}
	if !reflect.DeepEqual(a, got) {
		t.Errorf("round trip mismatch:\nin  %+v\nout %+v", a, got)
	}
}

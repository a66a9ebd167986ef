package tuition

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLocalStore_EmptyStart(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	a, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.HasData() {
		t.Errorf("fresh store should load an empty book, got %+v", a)
	}
	if a.Meta.UpdatedAt != 0 {
		t.Errorf("fresh book clock = %d, want epoch", a.Meta.UpdatedAt)
	}
}

func TestLocalStore_RoundTrip(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	a := NewAccounts()
	a.GlobalRate = 400
	if _, err := a.UpsertStudent(Student{Name: "Amit"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(a, got) {
		t.Errorf("round trip mismatch:\nin  %+v\nout %+v", a, got)
	}
}

func TestLocalStore_LegacyMigration(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"students":[{"id":"s1","name":"Amit","hourlyRate":450}],"sessions":[],"payments":[]}`
	if err := os.WriteFile(filepath.Join(dir, "tuition_accounts.json"), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewLocalStore(dir)
	a, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := a.Student("s1"); got == nil || got.Name != "Amit" {
		t.Fatalf("legacy data should be adopted, got %+v", a)
	}
	// A legacy book never had a clock; migration stamps one.
	if a.Meta.UpdatedAt == 0 {
		t.Error("migrated book should carry a clock")
	}

	// The migration persists under the current name and leaves the
	// legacy file untouched.
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("current file should exist after migration: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "tuition_accounts.json"))
	if err != nil || string(data) != legacy {
		t.Error("legacy file should be left as it was")
	}

	// The next load reads the current file, not the legacy one.
	again, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(a, again) {
		t.Errorf("second load mismatch:\nfirst  %+v\nsecond %+v", a, again)
	}
}

func TestLocalStore_LegacyPriority(t *testing.T) {
	dir := t.TempDir()
	// Both legacy vintages exist; the newer schema wins.
	v1 := `{"students":[{"id":"new","name":"New"}],"sessions":[],"payments":[]}`
	v0 := `{"students":[{"id":"old","name":"Old"}],"sessions":[],"payments":[]}`
	os.WriteFile(filepath.Join(dir, "tuition_accounts_v1.json"), []byte(v1), 0644)
	os.WriteFile(filepath.Join(dir, "tuition_accounts.json"), []byte(v0), 0644)

	a, err := NewLocalStore(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Student("new") == nil || a.Student("old") != nil {
		t.Errorf("v1 should win the scan, got %+v", a.Students)
	}
}

func TestLocalStore_EmptyLegacySkipped(t *testing.T) {
	dir := t.TempDir()
	empty := `{"students":[],"sessions":[],"payments":[]}`
	withData := `{"students":[{"id":"s1","name":"Amit"}],"sessions":[],"payments":[]}`
	os.WriteFile(filepath.Join(dir, "tuition_accounts_v1.json"), []byte(empty), 0644)
	os.WriteFile(filepath.Join(dir, "tuition_accounts.json"), []byte(withData), 0644)

	a, err := NewLocalStore(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Student("s1") == nil {
		t.Errorf("empty legacy file should be skipped in favor of one with data, got %+v", a.Students)
	}
}

// Package tuition implements a tuition account book: students, billable
// sessions and payments, persisted locally and optionally mirrored to a
// single remote record per user.
package tuition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rvasa/tuition/date"
)

// Gender is a display hint attached to a student.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Student is a person being tutored.
type Student struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
	Color  string `json:"color"`
	Notes  string `json:"notes,omitempty"`
}

// SessionRow is the share of one student in a session.
type SessionRow struct {
	StudentID string  `json:"studentId"`
	Duration  float64 `json:"duration"` // hours
	Rate      float64 `json:"rate"`     // hourly rate applied to this row
}

// Session is a single billable tutoring session, possibly shared by
// several students.
type Session struct {
	ID       string       `json:"id"`
	Date     date.Date    `json:"date"`
	Rows     []SessionRow `json:"rows"`
	BikeFare float64      `json:"bikeFare"`
	Notes    string       `json:"notes,omitempty"`
}

// Payment is money collected from the family.
type Payment struct {
	ID     string    `json:"id"`
	Date   date.Date `json:"date"`
	Amount float64   `json:"amount"`
	Notes  string    `json:"notes,omitempty"`
}

// Meta carries the replica metadata of an account book.
type Meta struct {
	// UpdatedAt is the unix-millisecond timestamp of the last accepted
	// mutation or merge. It orders replicas and never regresses.
	UpdatedAt int64 `json:"updatedAt"`
}

// Accounts is the whole account book of one user: the aggregate that is
// persisted, exported and mirrored wholesale. There is no partial update
// across replicas.
type Accounts struct {
	GlobalRate float64   `json:"globalRate"`
	Students   []Student `json:"students"`
	Sessions   []Session `json:"sessions"`
	Payments   []Payment `json:"payments"`
	Meta       Meta      `json:"meta"`
}

// NewAccounts creates an empty account book. Its logical clock is at the
// epoch so any real replica wins a timestamp comparison against it.
func NewAccounts() *Accounts {
	return &Accounts{
		Students: make([]Student, 0),
		Sessions: make([]Session, 0),
		Payments: make([]Payment, 0),
	}
}

// newID returns a fresh entry id.
func newID() string { return uuid.NewString() }

// HasData reports whether at least one entry exists in any collection.
func (a *Accounts) HasData() bool {
	return len(a.Students) > 0 || len(a.Sessions) > 0 || len(a.Payments) > 0
}

// Student returns the student with this id, or nil if unknown.
func (a *Accounts) Student(id string) *Student {
	for i := range a.Students {
		if a.Students[i].ID == id {
			return &a.Students[i]
		}
	}
	return nil
}

// Session returns the session with this id, or nil if unknown.
func (a *Accounts) Session(id string) *Session {
	for i := range a.Sessions {
		if a.Sessions[i].ID == id {
			return &a.Sessions[i]
		}
	}
	return nil
}

// Payment returns the payment with this id, or nil if unknown.
func (a *Accounts) Payment(id string) *Payment {
	for i := range a.Payments {
		if a.Payments[i].ID == id {
			return &a.Payments[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the account book.
func (a *Accounts) Clone() *Accounts {
	c := &Accounts{
		GlobalRate: a.GlobalRate,
		Students:   make([]Student, len(a.Students)),
		Sessions:   make([]Session, 0, len(a.Sessions)),
		Payments:   make([]Payment, len(a.Payments)),
		Meta:       a.Meta,
	}
	copy(c.Students, a.Students)
	copy(c.Payments, a.Payments)
	for _, s := range a.Sessions {
		rows := make([]SessionRow, len(s.Rows))
		copy(rows, s.Rows)
		s.Rows = rows
		c.Sessions = append(c.Sessions, s)
	}
	return c
}

// Touch advances the logical clock to now. If the wall clock did not move
// since the last mutation, the clock still strictly advances.
func (a *Accounts) Touch(now time.Time) {
	u := now.UnixMilli()
	if u <= a.Meta.UpdatedAt {
		u = a.Meta.UpdatedAt + 1
	}
	a.Meta.UpdatedAt = u
}

// UpsertStudent adds the student, or replaces the student with the same id.
// A missing id is generated.
func (a *Accounts) UpsertStudent(s Student) (Student, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return s, fmt.Errorf("student name is required")
	}
	if s.Gender != Female {
		s.Gender = Male
	}
	if s.ID == "" {
		s.ID = newID()
	}
	for i := range a.Students {
		if a.Students[i].ID == s.ID {
			a.Students[i] = s
			return s, nil
		}
	}
	a.Students = append(a.Students, s)
	return s, nil
}

// DeleteStudent removes the student and cascades: rows referencing the
// student are removed, and sessions left with no rows are removed too.
func (a *Accounts) DeleteStudent(id string) bool {
	found := false
	students := a.Students[:0]
	for _, s := range a.Students {
		if s.ID == id {
			found = true
			continue
		}
		students = append(students, s)
	}
	a.Students = students
	if !found {
		return false
	}

	sessions := a.Sessions[:0]
	for _, sess := range a.Sessions {
		rows := sess.Rows[:0]
		for _, r := range sess.Rows {
			if r.StudentID != id {
				rows = append(rows, r)
			}
		}
		sess.Rows = rows
		if len(sess.Rows) > 0 {
			sessions = append(sessions, sess)
		}
	}
	a.Sessions = sessions
	return true
}

// UpsertSession adds the session, or replaces the session with the same id.
// Rows pointing at unknown students or with a non-positive duration are
// discarded; a session must keep at least one valid row. Rows without a
// rate get the current global rate.
func (a *Accounts) UpsertSession(s Session) (Session, error) {
	if s.Date.IsZero() {
		return s, fmt.Errorf("session date is required")
	}
	rows := make([]SessionRow, 0, len(s.Rows))
	for _, r := range s.Rows {
		if a.Student(r.StudentID) == nil || r.Duration <= 0 {
			continue
		}
		if r.Rate <= 0 {
			r.Rate = a.GlobalRate
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return s, fmt.Errorf("session needs at least one student with a positive duration")
	}
	s.Rows = rows
	if s.BikeFare < 0 {
		return s, fmt.Errorf("bike fare cannot be negative")
	}
	if s.ID == "" {
		s.ID = newID()
	}
	for i := range a.Sessions {
		if a.Sessions[i].ID == s.ID {
			a.Sessions[i] = s
			return s, nil
		}
	}
	a.Sessions = append(a.Sessions, s)
	return s, nil
}

// DeleteSession removes the session with this id.
func (a *Accounts) DeleteSession(id string) bool {
	for i := range a.Sessions {
		if a.Sessions[i].ID == id {
			a.Sessions = append(a.Sessions[:i], a.Sessions[i+1:]...)
			return true
		}
	}
	return false
}

// UpsertPayment adds the payment, or replaces the payment with the same id.
func (a *Accounts) UpsertPayment(p Payment) (Payment, error) {
	if p.Date.IsZero() {
		return p, fmt.Errorf("payment date is required")
	}
	if p.Amount < 0 {
		return p, fmt.Errorf("payment amount cannot be negative")
	}
	if p.ID == "" {
		p.ID = newID()
	}
	for i := range a.Payments {
		if a.Payments[i].ID == p.ID {
			a.Payments[i] = p
			return p, nil
		}
	}
	a.Payments = append(a.Payments, p)
	return p, nil
}

// DeletePayment removes the payment with this id.
func (a *Accounts) DeletePayment(id string) bool {
	for i := range a.Payments {
		if a.Payments[i].ID == id {
			a.Payments = append(a.Payments[:i], a.Payments[i+1:]...)
			return true
		}
	}
	return false
}

// SetGlobalRate sets the default hourly rate applied to new session rows.
func (a *Accounts) SetGlobalRate(rate float64) error {
	if rate < 0 {
		return fmt.Errorf("hourly rate cannot be negative")
	}
	a.GlobalRate = rate
	return nil
}

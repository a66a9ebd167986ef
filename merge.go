package tuition

import "time"

// Merge combines two divergent account books into one. It is used when
// both the local and the remote replica hold data.
//
// Per collection, records are keyed by id: every id present on either
// side survives, and on a collision the local record wins wholesale. No
// field-level reconciliation is attempted within a record; if the same
// entry was edited on both sides, the remote edit is lost. That policy is
// deliberate: the guarantee is that no record ever disappears, not that
// the newer of two concurrent edits survives.
//
// The merged book gets a fresh logical clock, so it supersedes both
// inputs on the next timestamp comparison.
func Merge(local, cloud *Accounts) *Accounts {
	return merge(local, cloud, time.Now())
}

func merge(local, cloud *Accounts, at time.Time) *Accounts {
	m := NewAccounts()

	m.GlobalRate = local.GlobalRate
	if m.GlobalRate == 0 {
		m.GlobalRate = cloud.GlobalRate
	}

	m.Students = mergeByID(local.Students, cloud.Students, func(s Student) string { return s.ID })
	m.Sessions = mergeByID(local.Sessions, cloud.Sessions, func(s Session) string { return s.ID })
	m.Payments = mergeByID(local.Payments, cloud.Payments, func(p Payment) string { return p.ID })

	// Seed the clock with the newer input so Touch strictly supersedes
	// both replicas even when the wall clock lags them.
	m.Meta.UpdatedAt = max(local.Meta.UpdatedAt, cloud.Meta.UpdatedAt)
	m.Touch(at)
	return m
}

// mergeByID unions two collections keyed by id. Cloud entries come first,
// local entries overwrite on collision; the cloud ordering is preserved
// and local-only entries are appended in their local order.
func mergeByID[T any](local, cloud []T, id func(T) string) []T {
	index := make(map[string]int, len(cloud)+len(local))
	out := make([]T, 0, len(cloud)+len(local))
	for _, v := range cloud {
		index[id(v)] = len(out)
		out = append(out, v)
	}
	for _, v := range local {
		if i, ok := index[id(v)]; ok {
			out[i] = v
			continue
		}
		index[id(v)] = len(out)
		out = append(out, v)
	}
	return out
}

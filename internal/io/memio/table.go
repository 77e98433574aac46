package memio

import (
	"sync/atomic"
	"time"

	"github.com/gnames/gncoleta/pkg/ent/model"
)

// entity is a pointer to a struct that embeds model.Base.
type entity[T any] interface {
	*T
	Identity() *model.Base
}

// table keeps records of one type in id order. It is not synchronized,
// the owning store holds the lock. Records are never removed: Delete sets
// a tombstone and every regular read goes through active.
type table[T any, P entity[T]] struct {
	rows  []T
	index map[int]int
	seq   atomic.Int64
	now   func() time.Time
	clone func(T) T
}

func newTable[T any, P entity[T]](now func() time.Time, clone func(T) T) *table[T, P] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &table[T, P]{
		index: make(map[int]int),
		now:   now,
		clone: clone,
	}
}

// insert assigns a new id and timestamps.
func (t *table[T, P]) insert(v T) T {
	id := int(t.seq.Add(1))
	now := t.now()
	b := P(&v).Identity()
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Deleted = false

	t.index[id] = len(t.rows)
	t.rows = append(t.rows, t.clone(v))
	return t.clone(v)
}

// raw returns a record including tombstoned ones.
func (t *table[T, P]) raw(id int) (T, bool) {
	var zero T
	i, ok := t.index[id]
	if !ok {
		return zero, false
	}
	return t.clone(t.rows[i]), true
}

// get returns a live record.
func (t *table[T, P]) get(id int) (T, bool) {
	v, ok := t.raw(id)
	if !ok || P(&v).Identity().Deleted {
		var zero T
		return zero, false
	}
	return v, true
}

// replace overwrites a live record keeping id and creation time.
func (t *table[T, P]) replace(id int, v T) (T, bool) {
	i, ok := t.index[id]
	if !ok {
		return v, false
	}
	cur := P(&t.rows[i]).Identity()
	if cur.Deleted {
		return v, false
	}
	b := P(&v).Identity()
	b.ID = id
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = t.now()
	b.Deleted = false
	t.rows[i] = t.clone(v)
	return t.clone(v), true
}

// remove sets the tombstone of a live record.
func (t *table[T, P]) remove(id int) (T, bool) {
	var zero T
	i, ok := t.index[id]
	if !ok {
		return zero, false
	}
	b := P(&t.rows[i]).Identity()
	if b.Deleted {
		return zero, false
	}
	b.Deleted = true
	b.UpdatedAt = t.now()
	return t.clone(t.rows[i]), true
}

// active returns live records that match filter, in id order. A nil
// filter matches everything.
func (t *table[T, P]) active(filter func(*T) bool) []T {
	var res []T
	for i := range t.rows {
		v := &t.rows[i]
		if P(v).Identity().Deleted {
			continue
		}
		if filter != nil && !filter(v) {
			continue
		}
		res = append(res, t.clone(*v))
	}
	return res
}

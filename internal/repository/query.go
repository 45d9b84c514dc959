package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Query is a read-only, untracked view over T. Every builder method returns a
// new Query, so a Query can be shared and extended without affecting others.
type Query[T any] struct {
	db *gorm.DB
}

func newQuery[T any](db *gorm.DB) *Query[T] {
	return &Query[T]{db: db.Model(new(T)).Session(&gorm.Session{})}
}

func (q *Query[T]) with(tx *gorm.DB) *Query[T] {
	return &Query[T]{db: tx.Session(&gorm.Session{})}
}

func (q *Query[T]) Where(query interface{}, args ...interface{}) *Query[T] {
	return q.with(q.db.Where(query, args...))
}

func (q *Query[T]) Not(query interface{}, args ...interface{}) *Query[T] {
	return q.with(q.db.Not(query, args...))
}

func (q *Query[T]) Joins(query string, args ...interface{}) *Query[T] {
	return q.with(q.db.Joins(query, args...))
}

func (q *Query[T]) Preload(association string, args ...interface{}) *Query[T] {
	return q.with(q.db.Preload(association, args...))
}

func (q *Query[T]) Select(query interface{}, args ...interface{}) *Query[T] {
	return q.with(q.db.Select(query, args...))
}

func (q *Query[T]) Order(value interface{}) *Query[T] {
	return q.with(q.db.Order(value))
}

func (q *Query[T]) Limit(n int) *Query[T] {
	return q.with(q.db.Limit(n))
}

func (q *Query[T]) Offset(n int) *Query[T] {
	return q.with(q.db.Offset(n))
}

// Matching applies a Predicate, so the same conditions can drive tracked and
// untracked reads.
func (q *Query[T]) Matching(pred Predicate) *Query[T] {
	if pred == nil {
		return q
	}
	return q.with(pred(q.db))
}

func (q *Query[T]) Find() ([]*T, error) {
	var out []*T
	if err := q.db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out, nil
}

// First returns the first row in primary key order, or nil when there is none.
func (q *Query[T]) First() (*T, error) {
	entity := new(T)
	err := q.db.First(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return entity, nil
}

func (q *Query[T]) Count() (int64, error) {
	var n int64
	if err := q.db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (q *Query[T]) Any() (bool, error) {
	n, err := q.Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Scan runs the query into an arbitrary destination, used for projections
// across joins.
func (q *Query[T]) Scan(dest interface{}) error {
	if err := q.db.Scan(dest).Error; err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/store"
)

// Predicate narrows a statement over T. Anything gorm accepts in a chain can be
// used, so predicates are not limited to primary key comparisons.
type Predicate func(tx *gorm.DB) *gorm.DB

// Where builds a Predicate from a gorm condition, e.g. Where("user_id = ?", id)
// or Where(&domain.Outlet{Status: domain.StatusActive}).
func Where(query interface{}, args ...interface{}) Predicate {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(query, args...)
	}
}

// Repository is the typed persistence contract every entity repository offers.
//
// Add, Update and Delete flush immediately, each in its own store transaction.
// Commit and Rollback only clear pending tracking: neither can undo a mutation
// that has already been flushed.
type Repository[T any] interface {
	Add(entity *T) error
	Get(pred Predicate) (*T, error)
	Find(key store.Key) (*T, error)
	Update(entity *T) error
	Delete(entity *T) error
	DeleteWhere(pred Predicate) (int64, error)
	AsQueryable() *Query[T]
	GetAll() ([]*T, error)
	Commit()
	Rollback()
	Save() error
	GetMaxPK(field string) (int, error)
	Session() *store.Session
}

type Base[T any] struct {
	session *store.Session
	name    string
}

func New[T any](session *store.Session) *Base[T] {
	return &Base[T]{
		session: session,
		name:    reflect.TypeOf((*T)(nil)).Elem().Name(),
	}
}

func (r *Base[T]) Session() *store.Session {
	return r.session
}

func (r *Base[T]) Add(entity *T) error {
	if err := r.session.Track(entity, store.Added); err != nil {
		return fmt.Errorf("add %s: %w", r.name, err)
	}
	if err := r.session.SaveChanges(); err != nil {
		return fmt.Errorf("add %s: %w", r.name, err)
	}
	return nil
}

// Get detaches pending changes and returns the first row matching pred, or nil
// when nothing matches.
func (r *Base[T]) Get(pred Predicate) (*T, error) {
	r.session.DetachAll()

	entity := new(T)
	err := r.apply(pred).Take(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logError("Could not query entity", err)
		return nil, fmt.Errorf("get %s: %w", r.name, err)
	}

	if err := r.session.Attach(entity); err != nil {
		return nil, fmt.Errorf("get %s: %w", r.name, err)
	}
	return entity, nil
}

// Find detaches pending changes and looks entity up by primary key, serving a
// tracked Unchanged instance when there is one.
func (r *Base[T]) Find(key store.Key) (*T, error) {
	r.session.DetachAll()
	if !key.Finite() {
		return nil, nil
	}

	if cached, ok := r.session.Lookup(new(T), key); ok {
		return cached.(*T), nil
	}

	sch, err := r.session.Schema(new(T))
	if err != nil {
		return nil, err
	}
	pk := sch.PrioritizedPrimaryField
	if pk == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNoPrimaryKey, sch.Table)
	}

	entity := new(T)
	err = r.session.DB().
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: pk.DBName}, Value: key.Value()}).
		Take(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logError("Could not find entity by key", err, "key", key.String())
		return nil, fmt.Errorf("find %s %s: %w", r.name, key, err)
	}

	if err := r.session.Attach(entity); err != nil {
		return nil, fmt.Errorf("find %s: %w", r.name, err)
	}
	return entity, nil
}

func (r *Base[T]) Update(entity *T) error {
	if err := r.session.Track(entity, store.Modified); err != nil {
		return fmt.Errorf("update %s: %w", r.name, err)
	}
	if err := r.session.SaveChanges(); err != nil {
		return fmt.Errorf("update %s: %w", r.name, err)
	}
	return nil
}

func (r *Base[T]) Delete(entity *T) error {
	if err := r.session.Track(entity, store.Deleted); err != nil {
		return fmt.Errorf("delete %s: %w", r.name, err)
	}
	if err := r.session.SaveChanges(); err != nil {
		return fmt.Errorf("delete %s: %w", r.name, err)
	}
	return nil
}

// DeleteWhere removes every row matching pred and returns how many were
// removed. Unlike the single entity variants it loads the matches first, stages
// each as Deleted and then flushes them together.
func (r *Base[T]) DeleteWhere(pred Predicate) (int64, error) {
	var matches []*T
	if err := r.apply(pred).Find(&matches).Error; err != nil {
		r.logError("Could not load entities to delete", err)
		return 0, fmt.Errorf("delete %s: %w", r.name, err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	for _, entity := range matches {
		if err := r.session.Track(entity, store.Deleted); err != nil {
			return 0, fmt.Errorf("delete %s: %w", r.name, err)
		}
	}
	if err := r.session.SaveChanges(); err != nil {
		return 0, fmt.Errorf("delete %s: %w", r.name, err)
	}
	return int64(len(matches)), nil
}

// AsQueryable returns an untracked view over T. Nothing read through it enters
// the tracker, and pending entries are never visible in it.
func (r *Base[T]) AsQueryable() *Query[T] {
	return newQuery[T](r.session.DB())
}

func (r *Base[T]) GetAll() ([]*T, error) {
	var all []*T
	if err := r.session.DB().Find(&all).Error; err != nil {
		r.logError("Could not load entities", err)
		return nil, fmt.Errorf("get all %s: %w", r.name, err)
	}

	for _, entity := range all {
		if err := r.session.Attach(entity); err != nil {
			return nil, fmt.Errorf("get all %s: %w", r.name, err)
		}
	}
	return all, nil
}

// Commit clears pending tracking. Writes have already been flushed by Add,
// Update and Delete, so there is nothing left to commit.
func (r *Base[T]) Commit() {
	r.session.DetachAll()
}

// Rollback clears pending tracking. It does not undo flushed mutations.
func (r *Base[T]) Rollback() {
	r.session.DetachAll()
}

// Save flushes every pending entry of the shared session in one transaction.
func (r *Base[T]) Save() error {
	if err := r.session.SaveChanges(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// GetMaxPK returns MAX(field) over every row of T. field may be the Go field
// name or the column name. It fails with store.ErrEmptySet on an empty table.
func (r *Base[T]) GetMaxPK(field string) (int, error) {
	sch, err := r.session.Schema(new(T))
	if err != nil {
		return 0, err
	}
	f := sch.LookUpField(field)
	if f == nil {
		return 0, fmt.Errorf("%w: %s.%s", store.ErrUnknownField, sch.Table, field)
	}

	var maxKey sql.NullInt64
	row := r.session.DB().Model(new(T)).Select("MAX(?)", clause.Column{Name: f.DBName}).Row()
	if err := row.Scan(&maxKey); err != nil {
		r.logError("Could not read max key", err, "field", f.DBName)
		return 0, fmt.Errorf("max %s.%s: %w", sch.Table, f.DBName, err)
	}
	if !maxKey.Valid {
		return 0, fmt.Errorf("max %s.%s: %w", sch.Table, f.DBName, store.ErrEmptySet)
	}
	return int(maxKey.Int64), nil
}

func (r *Base[T]) apply(pred Predicate) *gorm.DB {
	tx := r.session.DB().Model(new(T))
	if pred != nil {
		tx = pred(tx)
	}
	return tx
}

func (r *Base[T]) logError(msg string, err error, kv ...string) {
	fields := map[string]interface{}{
		"entity": r.name,
		"error":  err.Error(),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	r.session.Logger().ErrorContext(r.session.Context(), msg, fields)
}

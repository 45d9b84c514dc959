package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

var schemaCache sync.Map

// Session is one handle on the store. It owns an explicit change tracker keyed by
// entity instance; repositories built on the same Session share that tracker.
//
// Flushes run in a store transaction per call, but there is no transaction
// spanning calls: once an Add, Update or Delete has flushed it is durable, and
// DetachAll only discards entries that are still pending.
type Session struct {
	ctx    context.Context
	db     *gorm.DB
	logger logger.Logger

	mu      sync.Mutex
	order   []interface{}
	entries map[interface{}]*Entry
}

func Open(ctx context.Context, db *gorm.DB, log logger.Logger) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		ctx:     ctx,
		db:      db.WithContext(ctx),
		logger:  log,
		entries: make(map[interface{}]*Entry),
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

// DB returns a gorm handle that is safe to build new statements from.
func (s *Session) DB() *gorm.DB {
	return s.db
}

func (s *Session) Logger() logger.Logger {
	return s.logger
}

// Schema parses the gorm schema of model, which must be a pointer to a struct.
func (s *Session) Schema(model interface{}) (*schema.Schema, error) {
	sch, err := schema.Parse(model, &schemaCache, s.db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema of %T: %w", model, err)
	}
	return sch, nil
}

// PrimaryKey returns the key of entity. ok is false while the key still has its
// zero value, as for rows whose key is generated by the store.
func (s *Session) PrimaryKey(entity interface{}) (key Key, ok bool, err error) {
	sch, err := s.Schema(entity)
	if err != nil {
		return Key{}, false, err
	}
	field := sch.PrioritizedPrimaryField
	if field == nil {
		return Key{}, false, fmt.Errorf("%w: %s", ErrNoPrimaryKey, sch.Table)
	}
	value, zero := field.ValueOf(s.ctx, reflect.ValueOf(entity))
	if zero {
		return Key{}, false, nil
	}
	key, err = KeyOf(value)
	if err != nil {
		return Key{}, false, err
	}
	return key, true, nil
}

func checkEntity(entity interface{}) error {
	v := reflect.ValueOf(entity)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotPointer
	}
	return nil
}

// Track moves entity to state. Deleting an entity that was only Added drops it
// from the tracker, and marking an Added entity Modified keeps it Added.
func (s *Session) Track(entity interface{}, state EntityState) error {
	if err := checkEntity(entity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, tracked := s.entries[entity]
	if state == Detached {
		if tracked {
			s.removeLocked(entity)
		}
		return nil
	}

	if !tracked {
		s.entries[entity] = &Entry{Entity: entity, State: state}
		s.order = append(s.order, entity)
		return nil
	}

	switch {
	case current.State == Added && state == Deleted:
		s.removeLocked(entity)
	case current.State == Added && state == Modified:
	default:
		current.State = state
	}
	return nil
}

// Attach tracks entity as Unchanged, replacing any other Unchanged instance of
// the same type and key. Tracked reads go through here so the identity map
// serves the most recently loaded row.
func (s *Session) Attach(entity interface{}) error {
	if err := s.Track(entity, Unchanged); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[entity]; ok && e.State == Unchanged {
		s.evictStaleLocked(entity)
	}
	return nil
}

// State returns the tracked state of entity, Detached when it is not tracked.
func (s *Session) State(entity interface{}) EntityState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[entity]; ok {
		return e.State
	}
	return Detached
}

// Entries returns a snapshot of every tracked entry in tracking order.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.order))
	for _, entity := range s.order {
		out = append(out, *s.entries[entity])
	}
	return out
}

func (s *Session) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.State.Pending() {
			return true
		}
	}
	return false
}

// DetachAll forces every Added, Modified and Deleted entry to Detached without
// touching the store. Unchanged entries stay tracked.
func (s *Session) DetachAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	detached := 0
	kept := s.order[:0]
	for _, entity := range s.order {
		if s.entries[entity].State.Pending() {
			delete(s.entries, entity)
			detached++
			continue
		}
		kept = append(kept, entity)
	}
	s.order = kept

	if detached > 0 {
		metrics.RecordDetached(detached)
		s.logger.DebugContext(s.ctx, "Detached pending tracker entries", map[string]interface{}{"count": detached})
	}
	return detached
}

// Lookup is the identity-map fast path: an Unchanged instance of model's type
// tracked under key.
func (s *Session) Lookup(model interface{}, key Key) (interface{}, bool) {
	typ := reflect.TypeOf(model)

	s.mu.Lock()
	candidates := make([]interface{}, 0, len(s.order))
	for _, entity := range s.order {
		if s.entries[entity].State == Unchanged && reflect.TypeOf(entity) == typ {
			candidates = append(candidates, entity)
		}
	}
	s.mu.Unlock()

	for _, entity := range candidates {
		k, ok, err := s.PrimaryKey(entity)
		if err == nil && ok && k.Equal(key) {
			return entity, true
		}
	}
	return nil, false
}

// SaveChanges writes every pending entry in one store transaction. On success
// Added and Modified entries become Unchanged and Deleted entries leave the
// tracker. On failure nothing is committed and the entries stay pending.
func (s *Session) SaveChanges() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*Entry, 0, len(s.order))
	for _, entity := range s.order {
		if e := s.entries[entity]; e.State.Pending() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	start := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range pending {
			if err := s.write(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.RecordStoreFlush(err, time.Since(start))

	if err != nil {
		s.logger.ErrorContext(s.ctx, "Flush failed", map[string]interface{}{
			"pending": len(pending),
			"error":   err.Error(),
		})
		return err
	}

	for _, e := range pending {
		if e.State == Deleted {
			s.removeLocked(e.Entity)
			s.evictStaleLocked(e.Entity)
			continue
		}
		e.State = Unchanged
		s.evictStaleLocked(e.Entity)
	}
	return nil
}

func (s *Session) write(tx *gorm.DB, e *Entry) error {
	sch, err := s.Schema(e.Entity)
	if err != nil {
		return err
	}

	var result *gorm.DB
	switch e.State {
	case Added:
		result = tx.Omit(clause.Associations).Create(e.Entity)
	case Modified:
		result = tx.Model(e.Entity).Select("*").Omit(clause.Associations).Updates(e.Entity)
	case Deleted:
		result = tx.Delete(e.Entity)
	default:
		return nil
	}

	flushErr := func(cause error) error {
		fe := &FlushError{Table: sch.Table, State: e.State, Err: cause}
		if key, ok, kerr := s.PrimaryKey(e.Entity); kerr == nil && ok {
			fe.Key = key.String()
		}
		return fe
	}

	if result.Error != nil {
		return flushErr(result.Error)
	}
	if e.State != Added && result.RowsAffected == 0 {
		return flushErr(ErrNoRowsAffected)
	}
	return nil
}

// evictStaleLocked drops other Unchanged instances tracked under the same key
// as fresh so the identity map cannot serve them.
func (s *Session) evictStaleLocked(fresh interface{}) {
	typ := reflect.TypeOf(fresh)
	key, ok, err := s.PrimaryKey(fresh)
	if err != nil || !ok {
		return
	}
	for _, entity := range append([]interface{}(nil), s.order...) {
		if entity == fresh || reflect.TypeOf(entity) != typ || s.entries[entity].State != Unchanged {
			continue
		}
		if k, ok, err := s.PrimaryKey(entity); err == nil && ok && k.Equal(key) {
			s.removeLocked(entity)
		}
	}
}

func (s *Session) removeLocked(entity interface{}) {
	delete(s.entries, entity)
	for i, e := range s.order {
		if e == entity {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Package audit records service failures in the crash log.
//
// Every service operation that fails is captured the same way: the pending
// tracking of the implicated repositories is cleared, a crash log key is
// allocated, the error message and its cause are extracted, and one Crashlog row
// is appended. The caller then returns its own failure value.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

type KeyStrategy string

const (
	// KeyStrategyStoreGenerated lets the store assign crash log keys.
	KeyStrategyStoreGenerated KeyStrategy = "store_generated"
	// KeyStrategyMaxPlusOne derives the key from MAX(CrashLogID)+1. Two failures
	// captured concurrently can compute the same key; the loser's row is lost
	// with a duplicate key error.
	KeyStrategyMaxPlusOne KeyStrategy = "max_plus_one"
)

func ParseKeyStrategy(s string) (KeyStrategy, error) {
	switch KeyStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case KeyStrategyStoreGenerated, "":
		return KeyStrategyStoreGenerated, nil
	case KeyStrategyMaxPlusOne:
		return KeyStrategyMaxPlusOne, nil
	default:
		return "", fmt.Errorf("unknown crash log key strategy %q", s)
	}
}

type Policy struct {
	KeyStrategy KeyStrategy
	// AuditUnwrapped also records failures whose error wraps no cause. They are
	// only logged otherwise.
	AuditUnwrapped bool
}

func DefaultPolicy() Policy {
	return Policy{KeyStrategy: KeyStrategyStoreGenerated}
}

// Rollbacker is anything whose pending tracking can be cleared, in practice
// every repository.
type Rollbacker interface {
	Rollback()
}

// KeyLocker serializes max_plus_one key allocation between processes.
type KeyLocker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

const crashLogKeyLock = "storefront:crash_log_key"

type Failure struct {
	ClassName  string
	MethodName string
	Err        error
	// Data is the operation input. Strings are stored as they are, anything
	// else as JSON.
	Data interface{}
}

type Recorder struct {
	policy Policy
	clock  clock.Clock
	logger logger.Logger
	locker KeyLocker
}

func NewRecorder(policy Policy, clk clock.Clock, log logger.Logger) *Recorder {
	if policy.KeyStrategy == "" {
		policy.KeyStrategy = KeyStrategyStoreGenerated
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		policy: policy,
		clock:  clk,
		logger: log,
	}
}

func (r *Recorder) Policy() Policy {
	return r.policy
}

// WithKeyLocker makes max_plus_one allocation hold l's lock from the MAX read
// until the insert is flushed.
func (r *Recorder) WithKeyLocker(l KeyLocker) *Recorder {
	r.locker = l
	return r
}

// Capture clears the pending tracking of sink and every repository in
// rollback, then appends one crash log row for f through sink. It returns the
// written row, or nil when the failure was not audited. A write failure is
// returned and logged; it is never retried.
func (r *Recorder) Capture(sink repository.CrashLogRepository, f Failure, rollback ...Rollbacker) (*domain.Crashlog, error) {
	for _, rb := range rollback {
		if rb != nil {
			rb.Rollback()
		}
	}
	sink.Rollback()

	if f.Err == nil {
		return nil, nil
	}

	ctx := sink.Session().Context()
	fields := map[string]interface{}{
		"class":  f.ClassName,
		"method": f.MethodName,
		"error":  f.Err.Error(),
	}

	cause := Cause(f.Err)
	if cause == nil && !r.policy.AuditUnwrapped {
		metrics.RecordUnauditedFailure(f.ClassName, f.MethodName, "no_cause")
		r.logger.WarnContext(ctx, "Service failure has no cause and was not written to the crash log", fields)
		return nil, nil
	}

	entry := &domain.Crashlog{
		ClassName:    f.ClassName,
		MethodName:   f.MethodName,
		ErrorMessage: f.Err.Error(),
		ErrorInner:   InnerMessage(f.Err),
		Data:         Snapshot(f.Data),
		TimeStamp:    r.clock.Now(),
	}

	if r.policy.KeyStrategy == KeyStrategyMaxPlusOne {
		if unlock := r.lockKeys(ctx, fields); unlock != nil {
			defer unlock()
		}

		key, err := NextLegacyKey(sink)
		if err != nil {
			fields["audit_error"] = err.Error()
			r.logger.ErrorContext(ctx, "Could not allocate crash log key", fields)
			return nil, fmt.Errorf("allocate crash log key: %w", err)
		}
		entry.CrashLogID = key
	}

	if err := sink.Add(entry); err != nil {
		sink.Rollback()
		fields["audit_error"] = err.Error()
		fields["crash_log_id"] = entry.CrashLogID
		if store.IsDuplicateKey(err) {
			metrics.RecordUnauditedFailure(f.ClassName, f.MethodName, "duplicate_key")
			r.logger.ErrorContext(ctx, "Crash log key collided with a concurrent failure", fields)
		} else {
			metrics.RecordUnauditedFailure(f.ClassName, f.MethodName, "write_failed")
			r.logger.ErrorContext(ctx, "Could not write crash log", fields)
		}
		return nil, fmt.Errorf("write crash log: %w", err)
	}

	metrics.RecordCrashLog(f.ClassName, f.MethodName)
	fields["crash_log_id"] = entry.CrashLogID
	r.logger.InfoContext(ctx, "Service failure written to the crash log", fields)
	return entry, nil
}

// lockKeys obtains the key lock when one is configured. Allocation proceeds
// unlocked if the lock cannot be obtained.
func (r *Recorder) lockKeys(ctx context.Context, fields map[string]interface{}) func() {
	if r.locker == nil {
		return nil
	}

	unlock, err := r.locker.Lock(ctx, crashLogKeyLock)
	if err != nil {
		r.logger.WarnContext(ctx, "Could not lock crash log key allocation; continuing unlocked", map[string]interface{}{
			"class":      fields["class"],
			"method":     fields["method"],
			"lock_error": err.Error(),
		})
		return nil
	}
	return unlock
}

// NextLegacyKey returns 0 for an empty crash log and MAX(CrashLogID)+1
// otherwise. The read and the later insert are not atomic.
func NextLegacyKey(sink repository.CrashLogRepository) (int, error) {
	exists, err := sink.AsQueryable().Any()
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	maxID, err := sink.GetMaxPK("CrashLogID")
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// Cause returns the error wrapped by err, or the first one when err wraps
// several. It is nil when err wraps nothing.
func Cause(err error) error {
	if err == nil {
		return nil
	}
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range multi.Unwrap() {
			if inner != nil {
				return inner
			}
		}
	}
	return nil
}

// InnerMessage is err's own message unless that message is empty or only
// points at the cause, in which case the cause's message is used.
func InnerMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg != "" && !strings.Contains(strings.ToLower(msg), strings.ToLower(domain.MsgInInnerException)) {
		return msg
	}
	if cause := Cause(err); cause != nil {
		return cause.Error()
	}
	return msg
}

// Snapshot serializes operation input for the Data column.
func Snapshot(data interface{}) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%+v", data)
	}
	return string(raw)
}

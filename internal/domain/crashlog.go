package domain

import (
	"context"
	"time"
)

// Crashlog is the append-only record written once per audited service failure.
type Crashlog struct {
	CrashLogID   int       `gorm:"primaryKey" json:"crash_log_id"`
	ClassName    string    `gorm:"size:100;index;not null" json:"class_name"`
	MethodName   string    `gorm:"size:100;not null" json:"method_name"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	ErrorInner   string    `gorm:"type:text" json:"error_inner"`
	Data         string    `gorm:"type:text" json:"data,omitempty"`
	TimeStamp    time.Time `gorm:"index;not null" json:"time_stamp"`
}

type CrashLogService interface {
	GetCrashLogs(ctx context.Context, page, pageSize int) ([]*Crashlog, error)
}

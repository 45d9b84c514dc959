package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/logger"
)

// CrashLogService is the read side of the crash log. It is not audited itself:
// its errors are returned.
type CrashLogService struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewCrashLogService(db *gorm.DB, logger logger.Logger) domain.CrashLogService {
	return &CrashLogService{
		db:     db,
		logger: logger,
	}
}

func (s *CrashLogService) GetCrashLogs(ctx context.Context, page, pageSize int) ([]*domain.Crashlog, error) {
	p := domain.Pagination{PageNo: page, PageSize: pageSize}.Normalize(domain.StandardPageSize)

	logs, err := repository.NewCrashLogRepository(store.Open(ctx, s.db, s.logger)).
		AsQueryable().
		Order("time_stamp DESC").
		Order("crash_log_id DESC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find()
	if err != nil {
		s.logger.ErrorContext(ctx, "Could not list crash logs", map[string]interface{}{
			"page":      p.PageNo,
			"page_size": p.PageSize,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("list crash logs: %w", err)
	}

	return logs, nil
}

package service

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

type CategoryService struct {
	base
	cache ReadCache
}

func NewCategoryService(db *gorm.DB, recorder *audit.Recorder, rc ReadCache, logger logger.Logger) domain.CategoryService {
	return &CategoryService{
		base:  newBase("CategoryService", db, recorder, logger),
		cache: rc.withDefaults(),
	}
}

// AddCategory files a category, or a sub category when ParentCategoryID is
// set, under an existing outlet.
func (s *CategoryService) AddCategory(ctx context.Context, category domain.CategoryModel) bool {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)
	categories := repository.NewCategoryRepository(sess)

	outlet, err := outlets.Find(store.IntKey(category.OutletID))
	if err == nil && outlet == nil {
		err = fmt.Errorf("add category to outlet %d: %w", category.OutletID, domain.ErrOutletNotFound)
	}
	if err == nil && category.ParentCategoryID != nil {
		var parent *domain.Category
		parent, err = categories.Find(store.IntKey(*category.ParentCategoryID))
		if err == nil && parent == nil {
			err = fmt.Errorf("add sub category of %d: %w", *category.ParentCategoryID, domain.ErrCategoryNotFound)
		}
	}
	if err != nil {
		s.fail(sess, "AddCategory", err, category, outlets, categories)
		return false
	}

	outletID := outlet.OutletID
	err = categories.Add(&domain.Category{
		CategoryName:     category.CategoryName,
		ParentCategoryID: category.ParentCategoryID,
		OutletID:         &outletID,
	})
	if err != nil {
		s.fail(sess, "AddCategory", err, category, outlets, categories)
		return false
	}

	cache.Invalidate(ctx, s.cache.Cache, s.logger, cache.CategoriesKey(outletID))
	return true
}

// GetCategories lists the categories of an outlet through the read cache.
func (s *CategoryService) GetCategories(ctx context.Context, outletID int) []domain.CategoryModel {
	sess := s.open(ctx)
	categories := repository.NewCategoryRepository(sess)

	models, err := cache.ReadThrough(ctx, s.cache.Cache, s.logger, cache.CategoriesKey(outletID), s.cache.TTL,
		func() ([]domain.CategoryModel, error) {
			return loadCategories(categories, outletID)
		})
	if err != nil {
		s.fail(sess, "GetCategories", err, strconv.Itoa(outletID), categories)
		return nil
	}
	return models
}

func loadCategories(categories repository.CategoryRepository, outletID int) ([]domain.CategoryModel, error) {
	rows, err := categories.AsQueryable().Where("outlet_id = ?", outletID).Order("category_id").Find()
	if err != nil {
		return nil, err
	}

	models := make([]domain.CategoryModel, 0, len(rows))
	for _, c := range rows {
		model := domain.CategoryModel{
			CategoryID:       c.CategoryID,
			CategoryName:     c.CategoryName,
			ParentCategoryID: c.ParentCategoryID,
		}
		if c.OutletID != nil {
			model.OutletID = *c.OutletID
		}
		models = append(models, model)
	}
	return models, nil
}

package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/cache"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
)

type ProductService struct {
	base
	clock clock.Clock
	cache ReadCache
}

func NewProductService(db *gorm.DB, recorder *audit.Recorder, clk clock.Clock, rc ReadCache, logger logger.Logger) domain.ProductService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &ProductService{
		base:  newBase("ProductService", db, recorder, logger),
		clock: clk,
		cache: rc.withDefaults(),
	}
}

// GetProductUnitTypes lists the active unit types through the read cache.
func (s *ProductService) GetProductUnitTypes(ctx context.Context) []domain.ProductUnitTypeModel {
	sess := s.open(ctx)
	units := repository.NewProductUnitTypeRepository(sess)

	models, err := cache.ReadThrough(ctx, s.cache.Cache, s.logger, cache.UnitTypesKey, s.cache.TTL,
		func() ([]domain.ProductUnitTypeModel, error) {
			rows, err := units.AsQueryable().Where("status = ?", domain.StatusActive).Order("unit_type_ids").Find()
			if err != nil {
				return nil, err
			}

			models := make([]domain.ProductUnitTypeModel, 0, len(rows))
			for _, u := range rows {
				models = append(models, domain.ProductUnitTypeModel{UnitTypeID: u.UnitTypeIDs, UnitTypeName: u.UnitTypeNames})
			}
			return models, nil
		})
	if err != nil {
		s.fail(sess, "GetProductUnitTypes", err, nil, units)
		return nil
	}
	return models
}

func (s *ProductService) AddProductUnitType(ctx context.Context, unitType domain.ProductUnitTypeModel) bool {
	sess := s.open(ctx)
	units := repository.NewProductUnitTypeRepository(sess)

	key, err := nextKey[domain.ProductUnitType](units, "UnitTypeIDs")
	if err == nil {
		err = units.Add(&domain.ProductUnitType{
			UnitTypeIDs:   key,
			UnitTypeNames: unitType.UnitTypeName,
			Status:        domain.StatusActive,
		})
	}
	if err != nil {
		s.fail(sess, "AddProductUnitType", err, unitType, units)
		return false
	}

	cache.Invalidate(ctx, s.cache.Cache, s.logger, cache.UnitTypesKey)
	return true
}

// PurchaseProduct creates a product, or restocks it when ProductID is set, and
// appends a Purchase entry to the inventory log. The product write is not
// undone if the log write fails.
func (s *ProductService) PurchaseProduct(ctx context.Context, model domain.ProductModel) bool {
	sess := s.open(ctx)
	products := repository.NewProductRepository(sess)
	inventory := repository.NewInventoryLogRepository(sess)

	if err := s.purchase(products, inventory, model); err != nil {
		s.fail(sess, "PurchaseProduct", err, model, products, inventory)
		return false
	}
	return true
}

func (s *ProductService) purchase(products repository.ProductRepository, inventory repository.InventoryLogRepository, model domain.ProductModel) error {
	if model.Quantity < 0 {
		return fmt.Errorf("purchase %d units: %w", model.Quantity, domain.ErrInvalidQuantity)
	}

	var product *domain.Product
	restock := model.ProductID != 0
	if restock {
		found, err := products.Find(store.IntKey(model.ProductID))
		if err != nil {
			return err
		}
		if found == nil {
			return fmt.Errorf("restock product %d: %w", model.ProductID, domain.ErrProductNotFound)
		}
		product = found
	} else {
		key, err := nextKey[domain.Product](products, "ProductID")
		if err != nil {
			return err
		}
		product = &domain.Product{ProductID: key, Status: domain.StatusActive}
	}

	product.ProductName = model.ProductName
	product.CategoryID = model.CategoryID
	if model.SubCategoryID != 0 {
		product.CategoryID = model.SubCategoryID
	}
	product.Description = model.ProductDescription
	product.ShortDescription = model.ShortDescription
	product.Specifications = model.ProductSpecs
	product.ProductUnitTypeID = model.UnitID
	product.Price = model.RetailPrice
	product.Quantity += model.Quantity

	if restock {
		if err := products.Update(product); err != nil {
			return err
		}
	} else if err := products.Add(product); err != nil {
		return err
	}

	return s.logInventory(inventory, product.ProductID, domain.ActivityPurchase, model)
}

// SellProduct is rejected when the product is unknown or short of stock.
func (s *ProductService) SellProduct(ctx context.Context, model domain.ProductModel) domain.Outcome {
	sess := s.open(ctx)
	products := repository.NewProductRepository(sess)
	inventory := repository.NewInventoryLogRepository(sess)

	if model.Quantity <= 0 {
		return domain.OutcomeRejected
	}

	product, err := products.Find(store.IntKey(model.ProductID))
	if err != nil {
		s.fail(sess, "SellProduct", err, model, products, inventory)
		return domain.OutcomeFailed
	}
	if product == nil || product.Quantity < model.Quantity {
		return domain.OutcomeRejected
	}

	product.Quantity -= model.Quantity
	if err := products.Update(product); err != nil {
		s.fail(sess, "SellProduct", err, model, products, inventory)
		return domain.OutcomeFailed
	}
	if err := s.logInventory(inventory, product.ProductID, domain.ActivitySell, model); err != nil {
		s.fail(sess, "SellProduct", err, model, products, inventory)
		return domain.OutcomeFailed
	}
	return domain.OutcomeAccepted
}

func (s *ProductService) logInventory(inventory repository.InventoryLogRepository, productID int, activity string, model domain.ProductModel) error {
	key, err := nextKey[domain.InventoryLog](inventory, "InventoryLogID")
	if err != nil {
		return err
	}

	price := model.PurchasingPrice
	if activity == domain.ActivitySell {
		price = model.RetailPrice
	}
	return inventory.Add(&domain.InventoryLog{
		InventoryLogID:      key,
		ProductID:           productID,
		ActivityDate:        s.clock.Now(),
		InventoryUpdateType: activity,
		Price:               price,
		Quantity:            model.Quantity,
	})
}

type inventoryRow struct {
	ProductID   int
	ProductName string
	Quantity    int
	OutletName  string
}

// GetInventory lists the products of one outlet, or of every outlet the user
// owns when outletID is not positive. It returns nil when the outlet is not
// the user's.
func (s *ProductService) GetInventory(ctx context.Context, userID string, outletID int) []domain.ProductModel {
	if userID == "" {
		return []domain.ProductModel{}
	}

	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)
	products := repository.NewProductRepository(sess)
	data := map[string]interface{}{"user_id": userID, "outlet_id": outletID}

	q := products.AsQueryable().
		Joins("JOIN categories ON categories.category_id = products.category_id").
		Joins("JOIN outlets ON outlets.outlet_id = categories.outlet_id").
		Where("outlets.user_id = ?", userID)

	if outletID > 0 {
		outlet, err := outlets.Find(store.IntKey(outletID))
		if err != nil {
			s.fail(sess, "GetInventory", err, data, outlets, products)
			return nil
		}
		if outlet == nil || outlet.UserID != userID {
			return nil
		}
		q = q.Where("outlets.outlet_id = ?", outletID)
	}

	var rows []inventoryRow
	err := q.Select("products.product_id, products.product_name, products.quantity, outlets.outlet_name").
		Order("products.product_id").
		Scan(&rows)
	if err != nil {
		s.fail(sess, "GetInventory", err, data, outlets, products)
		return nil
	}

	models := make([]domain.ProductModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, domain.ProductModel{
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			OutletName:  r.OutletName,
		})
	}
	return models
}

// ArchiveProduct is rejected when the product is unknown or sits in a category
// of an outlet the user does not own.
func (s *ProductService) ArchiveProduct(ctx context.Context, userID string, productID int) domain.Outcome {
	sess := s.open(ctx)
	products := repository.NewProductRepository(sess)
	categories := repository.NewCategoryRepository(sess)
	data := map[string]interface{}{"user_id": userID, "product_id": productID}

	product, err := products.Find(store.IntKey(productID))
	if err != nil {
		s.fail(sess, "ArchiveProduct", err, data, products, categories)
		return domain.OutcomeFailed
	}
	if product == nil {
		return domain.OutcomeRejected
	}

	owned, err := categories.AsQueryable().
		Joins("JOIN outlets ON outlets.outlet_id = categories.outlet_id").
		Where("outlets.user_id = ? AND categories.category_id = ?", userID, product.CategoryID).
		Any()
	if err != nil {
		s.fail(sess, "ArchiveProduct", err, data, products, categories)
		return domain.OutcomeFailed
	}
	if !owned {
		return domain.OutcomeRejected
	}

	product.Status = domain.StatusArchived
	if err := products.Update(product); err != nil {
		s.fail(sess, "ArchiveProduct", err, data, products, categories)
		return domain.OutcomeFailed
	}
	return domain.OutcomeAccepted
}

// nextKey allocates a manual key: 1 for an empty table, MAX(field)+1 otherwise.
func nextKey[T any](repo repository.Repository[T], field string) (int, error) {
	exists, err := repo.AsQueryable().Any()
	if err != nil {
		return 0, err
	}
	if !exists {
		return 1, nil
	}

	maxKey, err := repo.GetMaxPK(field)
	if err != nil {
		return 0, err
	}
	return maxKey + 1, nil
}

package repository

import (
	"context"
	"errors"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	ListProducts(ctx context.Context) ([]entity.Product, error)
	ListItems(ctx context.Context, userID uuid.UUID) ([]entity.CartItem, error)
	FindItem(ctx context.Context, userID, productID uuid.UUID) (*entity.CartItem, error)
	// SaveItem inserts the line or overwrites its quantity and price.
	SaveItem(ctx context.Context, item *entity.CartItem) error
	// AddToItem adds quantity to the line under a row lock on the user, so
	// concurrent adds never lose an increment. check sees the product and the
	// resulting quantity before anything is written.
	AddToItem(ctx context.Context, userID, productID uuid.UUID, quantity int, check StockCheck) (*entity.CartItem, error)
	// DeleteItem reports whether a line was removed.
	DeleteItem(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type StockCheck func(product *entity.Product, quantity int) error

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *cartRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *cartRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]entity.CartItem, error) {
	var items []entity.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepository) FindItem(ctx context.Context, userID, productID uuid.UUID) (*entity.CartItem, error) {
	var item entity.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) SaveItem(ctx context.Context, item *entity.CartItem) error {
	return upsertItem(r.db.WithContext(ctx), item)
}

func upsertItem(db *gorm.DB, item *entity.CartItem) error {
	return db.
		Omit("Product").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "price", "updated_at"}),
		}).
		Create(item).Error
}

func (r *cartRepository) AddToItem(ctx context.Context, userID, productID uuid.UUID, quantity int, check StockCheck) (*entity.CartItem, error) {
	var saved *entity.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entity.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", userID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}

		var product entity.Product
		if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}

		current := 0
		var line entity.CartItem
		err = tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&line).Error
		switch {
		case err == nil:
			current = line.Quantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		total := current + quantity
		if err := check(&product, total); err != nil {
			return err
		}

		item := &entity.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  total,
			Price:     product.Price,
		}
		if err := upsertItem(tx, item); err != nil {
			return err
		}
		item.Product = product
		saved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&entity.CartItem{})
	return res.RowsAffected > 0, res.Error
}

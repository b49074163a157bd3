package service

import (
	"context"
	"fmt"
	"net/http"

	"anoa.com/storefront/internal/entity"
	cartRepo "anoa.com/storefront/internal/modules/cart/repository"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*dto.Cart, error)
	ListProducts(ctx context.Context) ([]dto.ProductSummary, error)
	AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*dto.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

type cartService struct {
	repo cartRepo.CartRepository
}

func NewCartService(repo cartRepo.CartRepository) CartService {
	return &cartService{repo: repo}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*dto.Cart, error) {
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]dto.CartItem, len(items))
	for i := range items {
		lines[i] = toItemDTO(&items[i])
	}
	cart := dto.NewCart(lines)
	return &cart, nil
}

func (s *cartService) ListProducts(ctx context.Context) ([]dto.ProductSummary, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductSummary, len(products))
	for i := range products {
		out[i] = toProductDTO(&products[i])
	}
	return out, nil
}

// AddItem adds quantity (default one) to the line for the product.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartItem, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, invalidQuantity()
	}

	item, err := s.repo.AddToItem(ctx, userID, req.ProductID, quantity, checkStock)
	if err != nil {
		return nil, err
	}
	out := toItemDTO(item)
	return &out, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*dto.CartItem, error) {
	if quantity < 1 {
		return nil, invalidQuantity()
	}
	if _, err := s.repo.FindItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.save(ctx, userID, productID, quantity)
}

// save checks stock and snapshots the current product price onto the line.
func (s *cartService) save(ctx context.Context, userID, productID uuid.UUID, quantity int) (*dto.CartItem, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, quantity); err != nil {
		return nil, err
	}

	item := &entity.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     product.Price,
	}
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	item.Product = *product

	out := toItemDTO(item)
	return &out, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := s.repo.DeleteItem(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.ErrNotFound
	}
	return nil
}

func checkStock(product *entity.Product, quantity int) error {
	if quantity > product.Stock {
		return apperror.New(http.StatusConflict,
			fmt.Sprintf("only %d of %s left", product.Stock, product.Name), apperror.ErrOutOfStock)
	}
	return nil
}

func invalidQuantity() error {
	return apperror.New(http.StatusBadRequest, "quantity must be at least 1", apperror.ErrInvalidQuantity)
}

func toProductDTO(p *entity.Product) dto.ProductSummary {
	return dto.ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Price:    p.Price,
		Stock:    p.Stock,
		ImageURL: p.ImageURL,
	}
}

func toItemDTO(it *entity.CartItem) dto.CartItem {
	return dto.CartItem{
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		Price:     it.Price,
		LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		Product:   toProductDTO(&it.Product),
	}
}

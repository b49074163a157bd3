package http

import (
	"net/http"

	cartService "anoa.com/storefront/internal/modules/cart/service"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	service cartService.CartService
}

func NewCartHandler(service cartService.CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, products)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	cart, err := h.service.GetCart(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	productID, ok := response.ParamUUID(c, "product_id")
	if !ok {
		return
	}

	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.service.UpdateQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	productID, ok := response.ParamUUID(c, "product_id")
	if !ok {
		return
	}

	if err := h.service.RemoveItem(c.Request.Context(), userID, productID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

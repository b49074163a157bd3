package http

import (
	userService "anoa.com/storefront/internal/modules/user/service"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service userService.AuthService
}

func NewAuthHandler(service userService.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, res)
}

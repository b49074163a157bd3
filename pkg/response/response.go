package response

import (
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrNotAuthorized
	}

	s, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrNotAuthorized
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.ErrNotAuthorized
	}

	return userID, nil
}

// ParamUUID parses a path parameter, answering 400 itself when it is not a UUID.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Error(c, apperror.New(http.StatusBadRequest, "invalid "+name, apperror.ErrBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

func OK[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, dto.Envelope[T]{Success: true, Data: data})
}

func Created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, dto.Envelope[T]{Success: true, Data: data})
}

// Error writes the failure envelope for err.
func Error(c *gin.Context, err error) {
	status := apperror.MapErrorToStatus(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		message = apperror.ErrInternal.Error()
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}

	c.AbortWithStatusJSON(status, dto.Envelope[any]{
		Success: false,
		Error: &dto.ErrorBody{
			Code:    apperror.Code(err),
			Message: message,
		},
	})
}

// BindError answers a request whose body failed gin binding.
func BindError(c *gin.Context, err error) {
	Error(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
}

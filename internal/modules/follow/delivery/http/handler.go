package http

import (
	"net/http"

	followService "anoa.com/storefront/internal/modules/follow/service"
	"anoa.com/storefront/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FollowHandler struct {
	service followService.FollowService
}

func NewFollowHandler(service followService.FollowService) *FollowHandler {
	return &FollowHandler{service: service}
}

// ids reads the viewer and the :user_id parameter, answering on failure.
func ids(c *gin.Context) (viewerID, userID uuid.UUID, ok bool) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok = response.ParamUUID(c, "user_id")
	return viewerID, userID, ok
}

func (h *FollowHandler) GetRelationship(c *gin.Context) {
	viewerID, userID, ok := ids(c)
	if !ok {
		return
	}

	rel, err := h.service.Relationship(c.Request.Context(), viewerID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, rel)
}

func (h *FollowHandler) Send(c *gin.Context) {
	viewerID, userID, ok := ids(c)
	if !ok {
		return
	}

	if err := h.service.Send(c.Request.Context(), viewerID, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FollowHandler) Cancel(c *gin.Context) {
	viewerID, userID, ok := ids(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), viewerID, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	viewerID, userID, ok := ids(c)
	if !ok {
		return
	}

	if err := h.service.Unfollow(c.Request.Context(), viewerID, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FollowHandler) Accept(c *gin.Context) {
	viewerID, userID, ok := ids(c)
	if !ok {
		return
	}

	if err := h.service.Accept(c.Request.Context(), viewerID, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FollowHandler) PendingRequests(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	reqs, err := h.service.PendingRequests(c.Request.Context(), viewerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, reqs)
}

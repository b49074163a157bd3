package http

import (
	"strconv"

	searchService "anoa.com/storefront/internal/modules/search/service"
	"anoa.com/storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service searchService.SearchService
}

func NewSearchHandler(service searchService.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) SearchRewards(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rewards, err := h.service.SearchRewards(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, rewards)
}

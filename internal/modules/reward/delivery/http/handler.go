package http

import (
	"net/http"

	rewardDto "anoa.com/storefront/internal/modules/reward/dto"
	rewardService "anoa.com/storefront/internal/modules/reward/service"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	service rewardService.RewardService
}

func NewRewardHandler(service rewardService.RewardService) *RewardHandler {
	return &RewardHandler{service: service}
}

func (h *RewardHandler) GetAccount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, account)
}

func (h *RewardHandler) ListCatalog(c *gin.Context) {
	rewards, err := h.service.ListCatalog(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, rewards)
}

func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rewardID, ok := response.ParamUUID(c, "reward_id")
	if !ok {
		return
	}

	res, err := h.service.Redeem(c.Request.Context(), userID, rewardID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

func (h *RewardHandler) CreateReward(c *gin.Context) {
	var input rewardDto.CreateRewardInput
	if err := c.ShouldBind(&input); err != nil {
		response.BindError(c, err)
		return
	}

	var image *dto.ImageFile
	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, apperror.New(http.StatusBadRequest, "could not read image", apperror.ErrBadRequest))
			return
		}
		defer file.Close()

		image = &dto.ImageFile{
			Reader:   file,
			FileName: fileHeader.Filename,
		}
	}

	reward, err := h.service.CreateReward(c.Request.Context(), input, image)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, reward)
}

func (h *RewardHandler) AwardPoints(c *gin.Context) {
	var req rewardDto.AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	account, err := h.service.AwardPoints(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, account)
}

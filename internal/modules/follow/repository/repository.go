package repository

import (
	"context"
	"errors"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FollowRepository interface {
	Find(ctx context.Context, requesterID, targetID uuid.UUID) (*entity.FollowRequest, error)
	Create(ctx context.Context, req *entity.FollowRequest) error
	// DeleteWithStatus removes the request only while it has status.
	DeleteWithStatus(ctx context.Context, requesterID, targetID uuid.UUID, status string) (bool, error)
	Accept(ctx context.Context, requesterID, targetID uuid.UUID) (bool, error)
	ListIncoming(ctx context.Context, targetID uuid.UUID, status string) ([]entity.FollowRequest, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Find(ctx context.Context, requesterID, targetID uuid.UUID) (*entity.FollowRequest, error) {
	var req entity.FollowRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ?", requesterID, targetID).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *followRepository) Create(ctx context.Context, req *entity.FollowRequest) error {
	err := r.db.WithContext(ctx).Omit("Requester", "Target").Create(req).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrAlreadyExists
	}
	return err
}

func (r *followRepository) DeleteWithStatus(ctx context.Context, requesterID, targetID uuid.UUID, status string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, status).
		Delete(&entity.FollowRequest{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) Accept(ctx context.Context, requesterID, targetID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.FollowRequest{}).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, entity.FollowPending).
		Update("status", entity.FollowAccepted)
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) ListIncoming(ctx context.Context, targetID uuid.UUID, status string) ([]entity.FollowRequest, error) {
	var reqs []entity.FollowRequest
	err := r.db.WithContext(ctx).
		Preload("Requester.Role").
		Where("target_id = ? AND status = ?", targetID, status).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *followRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

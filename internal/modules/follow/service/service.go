package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/storefront/internal/entity"
	followRepo "anoa.com/storefront/internal/modules/follow/repository"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/follow"
	"github.com/google/uuid"
)

// Notifier delivers in-app notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type FollowService interface {
	Relationship(ctx context.Context, viewerID, userID uuid.UUID) (*dto.Relationship, error)
	Send(ctx context.Context, viewerID, targetID uuid.UUID) error
	Cancel(ctx context.Context, viewerID, targetID uuid.UUID) error
	Unfollow(ctx context.Context, viewerID, targetID uuid.UUID) error
	Accept(ctx context.Context, viewerID, requesterID uuid.UUID) error
	PendingRequests(ctx context.Context, viewerID uuid.UUID) ([]dto.FollowRequest, error)
}

type followService struct {
	repo     followRepo.FollowRepository
	notifier Notifier
}

func NewFollowService(repo followRepo.FollowRepository, notifier Notifier) FollowService {
	return &followService{repo: repo, notifier: notifier}
}

// request loads one direction as the wire value, nil when absent.
func (s *followService) request(ctx context.Context, requesterID, targetID uuid.UUID) (*follow.Request, error) {
	req, err := s.repo.Find(ctx, requesterID, targetID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &follow.Request{Status: follow.RequestStatus(req.Status)}, nil
}

func (s *followService) Relationship(ctx context.Context, viewerID, userID uuid.UUID) (*dto.Relationship, error) {
	if viewerID == userID {
		return nil, apperror.New(http.StatusBadRequest, "cannot relate to yourself", apperror.ErrBadRequest)
	}

	sent, err := s.request(ctx, viewerID, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.request(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}

	rel := dto.NewRelationship(userID, sent, received)
	return &rel, nil
}

func (s *followService) Send(ctx context.Context, viewerID, targetID uuid.UUID) error {
	if viewerID == targetID {
		return apperror.New(http.StatusBadRequest, "cannot follow yourself", apperror.ErrBadRequest)
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.ErrNotFound
	}

	if _, err := s.repo.Find(ctx, viewerID, targetID); err == nil {
		return apperror.New(http.StatusConflict, "follow request already sent", apperror.ErrAlreadyExists)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	req := &entity.FollowRequest{
		RequesterID: viewerID,
		TargetID:    targetID,
		Status:      entity.FollowPending,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return apperror.New(http.StatusConflict, "follow request already sent", apperror.ErrAlreadyExists)
		}
		return err
	}

	s.notify(ctx, &entity.Notification{
		UserID:     targetID,
		ActorID:    &viewerID,
		EntityID:   req.ID,
		EntityType: "follow_request",
		Type:       entity.NotificationFollowRequest,
		Message:    "You have a new follow request",
	})
	return nil
}

func (s *followService) Cancel(ctx context.Context, viewerID, targetID uuid.UUID) error {
	ok, err := s.repo.DeleteWithStatus(ctx, viewerID, targetID, entity.FollowPending)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(http.StatusNotFound, "no pending follow request", apperror.ErrNotFound)
	}
	return nil
}

func (s *followService) Unfollow(ctx context.Context, viewerID, targetID uuid.UUID) error {
	ok, err := s.repo.DeleteWithStatus(ctx, viewerID, targetID, entity.FollowAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(http.StatusNotFound, "not following this user", apperror.ErrNotFound)
	}
	return nil
}

func (s *followService) Accept(ctx context.Context, viewerID, requesterID uuid.UUID) error {
	ok, err := s.repo.Accept(ctx, requesterID, viewerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(http.StatusNotFound, "no pending follow request", apperror.ErrNotFound)
	}

	s.notify(ctx, &entity.Notification{
		UserID:     requesterID,
		ActorID:    &viewerID,
		EntityID:   viewerID,
		EntityType: "user",
		Type:       entity.NotificationFollowAccepted,
		Message:    "Your follow request was accepted",
	})
	return nil
}

func (s *followService) PendingRequests(ctx context.Context, viewerID uuid.UUID) ([]dto.FollowRequest, error) {
	reqs, err := s.repo.ListIncoming(ctx, viewerID, entity.FollowPending)
	if err != nil {
		return nil, err
	}

	out := make([]dto.FollowRequest, len(reqs))
	for i, r := range reqs {
		out[i] = dto.FollowRequest{
			ID:          r.ID,
			RequesterID: r.RequesterID,
			TargetID:    r.TargetID,
			Status:      follow.RequestStatus(r.Status),
			CreatedAt:   r.CreatedAt,
		}
		if r.Requester.ID != uuid.Nil {
			out[i].Requester = &dto.UserSummary{
				ID:        r.Requester.ID,
				Username:  r.Requester.Username,
				AvatarURL: r.Requester.AvatarURL,
				Role:      r.Requester.Role.Name,
			}
		}
	}
	return out, nil
}

func (s *followService) notify(ctx context.Context, n *entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		slog.Warn("create notification", "type", n.Type, "user_id", n.UserID, "error", err)
	}
}

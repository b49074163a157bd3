package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"anoa.com/storefront/internal/entity"
	rewardDto "anoa.com/storefront/internal/modules/reward/dto"
	rewardRepo "anoa.com/storefront/internal/modules/reward/repository"
	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/lock"
	"anoa.com/storefront/pkg/storage"
	"anoa.com/storefront/pkg/tier"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

const recentTransactions = 20

// Notifier delivers in-app notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

// CatalogIndexer keeps the search index in step with the catalog.
type CatalogIndexer interface {
	IndexReward(ctx context.Context, reward *entity.Reward) error
}

type RewardService interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*dto.RewardAccount, error)
	ListCatalog(ctx context.Context) ([]dto.Reward, error)
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*dto.RedeemResponse, error)
	CreateReward(ctx context.Context, input rewardDto.CreateRewardInput, image *dto.ImageFile) (*dto.Reward, error)
	AwardPoints(ctx context.Context, req rewardDto.AwardPointsRequest) (*dto.RewardAccount, error)
}

type rewardService struct {
	repo      rewardRepo.RewardRepository
	locker    lock.Locker
	notifier  Notifier
	indexer   CatalogIndexer
	images    storage.ImageStorage
	sanitizer *bluemonday.Policy
}

// NewRewardService wires the loyalty service. notifier, indexer and images
// may be nil.
func NewRewardService(repo rewardRepo.RewardRepository, locker lock.Locker, notifier Notifier, indexer CatalogIndexer, images storage.ImageStorage) RewardService {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &rewardService{
		repo:      repo,
		locker:    locker,
		notifier:  notifier,
		indexer:   indexer,
		images:    images,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func redeemLockKey(userID uuid.UUID) string {
	return fmt.Sprintf("redeem_lock:%s", userID)
}

func (s *rewardService) GetAccount(ctx context.Context, userID uuid.UUID) (*dto.RewardAccount, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, userID, recentTransactions)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RewardTransaction, len(txs))
	for i, t := range txs {
		items[i] = dto.RewardTransaction{
			ID:          t.ID,
			Points:      t.Points,
			EventType:   t.EventType,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		}
	}
	account := dto.NewRewardAccount(userID, balance, items)
	return &account, nil
}

func (s *rewardService) ListCatalog(ctx context.Context) ([]dto.Reward, error) {
	rewards, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Reward, len(rewards))
	for i := range rewards {
		out[i] = toRewardDTO(&rewards[i])
	}
	return out, nil
}

func (s *rewardService) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*dto.RedeemResponse, error) {
	reward, err := s.repo.FindByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, apperror.ErrNotFound
	}

	unlock, ok, err := s.locker.TryLock(ctx, redeemLockKey(userID))
	switch {
	case err != nil:
		// The row lock still serialises the ledger.
		slog.Warn("redeem lock unavailable", "user_id", userID, "error", err)
	case !ok:
		return nil, apperror.New(http.StatusTooManyRequests, "a redemption is already in progress", apperror.ErrRedemptionInProgress)
	default:
		defer unlock()
	}

	redemption, remaining, err := s.repo.Redeem(ctx, userID, reward)
	if err != nil {
		if errors.Is(err, apperror.ErrInsufficientPoints) {
			return nil, apperror.New(http.StatusUnprocessableEntity,
				fmt.Sprintf("%d points required", reward.PointsRequired), apperror.ErrInsufficientPoints)
		}
		return nil, err
	}

	s.notify(ctx, &entity.Notification{
		UserID:     userID,
		EntityID:   redemption.ID,
		EntityType: "redemption",
		Type:       entity.NotificationRedemption,
		Message:    fmt.Sprintf("You redeemed %s for %d points", reward.Name, reward.PointsRequired),
	})

	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		// The redemption is committed; answer with what is known.
		slog.Warn("reload account after redeem", "user_id", userID, "error", err)
		fallback := dto.NewRewardAccount(userID, remaining, nil)
		account = &fallback
	}

	return &dto.RedeemResponse{
		Redemption: dto.Redemption{
			ID:          redemption.ID,
			RewardID:    redemption.RewardID,
			PointsSpent: redemption.PointsSpent,
			CreatedAt:   redemption.CreatedAt,
		},
		Account: *account,
	}, nil
}

func (s *rewardService) CreateReward(ctx context.Context, input rewardDto.CreateRewardInput, image *dto.ImageFile) (*dto.Reward, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(input.Name))
	if name == "" {
		return nil, apperror.New(http.StatusBadRequest, "name is required", apperror.ErrInvalidInput)
	}

	reward := &entity.Reward{
		Name:           name,
		Description:    strings.TrimSpace(s.sanitizer.Sanitize(input.Description)),
		PointsRequired: input.PointsRequired,
		Active:         true,
	}

	var err error
	reward.Slug, err = s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	if image != nil {
		if s.images == nil {
			return nil, storage.ErrNotConfigured
		}
		url, err := s.images.UploadImage(ctx, image.Reader, image.FileName)
		if err != nil {
			return nil, err
		}
		reward.ImageURL = &url
	}

	if err := s.repo.CreateReward(ctx, reward); err != nil {
		if reward.ImageURL != nil {
			if delErr := s.images.DeleteImage(ctx, *reward.ImageURL); delErr != nil {
				slog.Warn("delete orphaned reward image", "url", *reward.ImageURL, "error", delErr)
			}
		}
		return nil, err
	}

	if s.indexer != nil {
		if err := s.indexer.IndexReward(ctx, reward); err != nil {
			// The periodic reindex picks it up.
			slog.Warn("index reward", "reward_id", reward.ID, "error", err)
		}
	}

	out := toRewardDTO(reward)
	return &out, nil
}

func (s *rewardService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "reward"
	}
	exists, err := s.repo.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

func (s *rewardService) AwardPoints(ctx context.Context, req rewardDto.AwardPointsRequest) (*dto.RewardAccount, error) {
	if req.EventType == entity.EventEarn && req.Points <= 0 {
		return nil, apperror.New(http.StatusBadRequest, "earned points must be positive", apperror.ErrInvalidInput)
	}

	description := strings.TrimSpace(s.sanitizer.Sanitize(req.Description))
	if description == "" {
		description = fmt.Sprintf("%d points (%s)", req.Points, req.EventType)
	}

	before, err := s.repo.AppendTransaction(ctx, &entity.RewardTransaction{
		UserID:      req.UserID,
		Points:      req.Points,
		EventType:   req.EventType,
		Description: description,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrInsufficientPoints) {
			return nil, apperror.New(http.StatusUnprocessableEntity, "adjustment would make the balance negative", apperror.ErrInsufficientPoints)
		}
		return nil, err
	}

	after := before + req.Points
	if from, to := tier.For(before), tier.For(after); tierRank(to) > tierRank(from) {
		s.notify(ctx, &entity.Notification{
			UserID:     req.UserID,
			EntityID:   req.UserID,
			EntityType: "reward_account",
			Type:       entity.NotificationTierUp,
			Message:    fmt.Sprintf("You reached %s tier with %d points", to, after),
		})
	}

	return s.GetAccount(ctx, req.UserID)
}

func (s *rewardService) notify(ctx context.Context, n *entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		slog.Warn("create notification", "type", n.Type, "user_id", n.UserID, "error", err)
	}
}

func tierRank(t tier.Tier) int {
	r, _ := tier.RangeOf(t)
	return r.MinPoints
}

func toRewardDTO(r *entity.Reward) dto.Reward {
	return dto.Reward{
		ID:             r.ID,
		Name:           r.Name,
		Slug:           r.Slug,
		Description:    r.Description,
		PointsRequired: r.PointsRequired,
		ImageURL:       r.ImageURL,
	}
}

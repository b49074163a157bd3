package repository

import (
	"context"
	"errors"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepository interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]entity.RewardTransaction, error)
	// AppendTransaction adds t to the ledger and returns the balance before it.
	AppendTransaction(ctx context.Context, t *entity.RewardTransaction) (int, error)
	// Redeem spends reward.PointsRequired and returns the balance left.
	Redeem(ctx context.Context, userID uuid.UUID, reward *entity.Reward) (*entity.Redemption, int, error)

	ListActive(ctx context.Context) ([]entity.Reward, error)
	ListAll(ctx context.Context) ([]entity.Reward, error)
	SearchByName(ctx context.Context, query string, limit int) ([]entity.Reward, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reward, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateReward(ctx context.Context, reward *entity.Reward) error
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func balanceOf(db *gorm.DB, userID uuid.UUID) (int, error) {
	var total int
	err := db.Model(&entity.RewardTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}

// lockUser takes a row lock on the user for the rest of tx.
func lockUser(tx *gorm.DB, userID uuid.UUID) error {
	var user entity.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}

func (r *rewardRepository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return balanceOf(r.db.WithContext(ctx), userID)
}

func (r *rewardRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]entity.RewardTransaction, error) {
	var txs []entity.RewardTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *rewardRepository) AppendTransaction(ctx context.Context, t *entity.RewardTransaction) (int, error) {
	var before int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, t.UserID); err != nil {
			return err
		}

		var err error
		before, err = balanceOf(tx, t.UserID)
		if err != nil {
			return err
		}
		if before+t.Points < 0 {
			return apperror.ErrInsufficientPoints
		}
		return tx.Create(t).Error
	})
	return before, err
}

func (r *rewardRepository) Redeem(ctx context.Context, userID uuid.UUID, reward *entity.Reward) (*entity.Redemption, int, error) {
	var (
		redemption *entity.Redemption
		remaining  int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		balance, err := balanceOf(tx, userID)
		if err != nil {
			return err
		}
		if balance < reward.PointsRequired {
			return apperror.ErrInsufficientPoints
		}

		ledger := &entity.RewardTransaction{
			UserID:      userID,
			Points:      -reward.PointsRequired,
			EventType:   entity.EventRedeem,
			Description: "Redeemed " + reward.Name,
			ReferenceID: &reward.ID,
		}
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}

		redemption = &entity.Redemption{
			UserID:        userID,
			RewardID:      reward.ID,
			PointsSpent:   reward.PointsRequired,
			TransactionID: ledger.ID,
		}
		if err := tx.Create(redemption).Error; err != nil {
			return err
		}

		remaining = balance - reward.PointsRequired
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return redemption, remaining, nil
}

func (r *rewardRepository) ListActive(ctx context.Context) ([]entity.Reward, error) {
	var rewards []entity.Reward
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("points_required ASC, name ASC").
		Find(&rewards).Error
	return rewards, err
}

func (r *rewardRepository) ListAll(ctx context.Context) ([]entity.Reward, error) {
	var rewards []entity.Reward
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rewards).Error
	return rewards, err
}

func (r *rewardRepository) SearchByName(ctx context.Context, query string, limit int) ([]entity.Reward, error) {
	var rewards []entity.Reward
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	err := q.Order("points_required ASC").Limit(limit).Find(&rewards).Error
	return rewards, err
}

func (r *rewardRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reward, error) {
	var reward entity.Reward
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &reward, nil
}

func (r *rewardRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Reward{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *rewardRepository) CreateReward(ctx context.Context, reward *entity.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

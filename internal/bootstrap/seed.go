package bootstrap

import (
	"log/slog"

	"anoa.com/storefront/internal/entity"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.RewardTransaction{},
		&entity.Reward{},
		&entity.Redemption{},
		&entity.Product{},
		&entity.CartItem{},
		&entity.FollowRequest{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Store administrator"},
		{Name: entity.RoleMember, Description: "Loyalty member"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedUsers creates the development admin and a demo member with a starting
// balance.
func SeedUsers(db *gorm.DB) error {
	admin, err := seedUser(db, entity.RoleAdmin, "admin", "admin@storefront.local", "admin12345")
	if err != nil {
		return err
	}
	if admin != nil {
		slog.Info("admin user seeded", "email", admin.Email)
	}

	member, err := seedUser(db, entity.RoleMember, "demo", "demo@storefront.local", "demo12345")
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}

	welcome := entity.RewardTransaction{
		UserID:      member.ID,
		Points:      1200,
		EventType:   entity.EventEarn,
		Description: "Welcome bonus",
	}
	if err := db.Create(&welcome).Error; err != nil {
		return err
	}
	slog.Info("demo member seeded", "email", member.Email, "points", welcome.Points)
	return nil
}

// seedUser returns nil when the email is already taken.
func seedUser(db *gorm.DB, roleName, username, email, password string) (*entity.User, error) {
	var role entity.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       &role.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SeedCatalog adds demo products and rewards when none exist.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		products := []entity.Product{
			{Name: "Ceramic Mug", Price: decimal.RequireFromString("12.50"), Stock: 40},
			{Name: "Cold Brew Beans 250g", Price: decimal.RequireFromString("18.00"), Stock: 25},
			{Name: "Enamel Pin", Price: decimal.RequireFromString("4.75"), Stock: 3},
		}
		for i := range products {
			products[i].Slug = slug.Make(products[i].Name)
		}
		if err := db.Create(&products).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&entity.Reward{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		rewards := []entity.Reward{
			{Name: "Free Drink", Description: "Any handcrafted drink, any size.", PointsRequired: 150, Active: true},
			{Name: "Canvas Tote Bag", Description: "Heavy cotton tote with the store logo.", PointsRequired: 600, Active: true},
			{Name: "Barista Workshop", Description: "Two hour latte art session for one.", PointsRequired: 2500, Active: true},
		}
		for i := range rewards {
			rewards[i].Slug = slug.Make(rewards[i].Name)
		}
		if err := db.Create(&rewards).Error; err != nil {
			return err
		}
	}

	return nil
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"minisocial-api/models"
)

var ErrEmailExists = errors.New("email already registered")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account. Emails are unique.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	db := r.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Account{}).Where("email = ?", account.Email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrEmailExists
	}
	return db.Create(account).Error
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. The primary key on identity makes the insert
// the registration race guard: the second of two concurrent registrations
// fails with ErrDuplicateIdentity.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	model := AccountModel{
		Identity:    string(account.Identity),
		KeyMaterial: account.KeyMaterial,
		CreatedAt:   account.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateIdentity
		}
		return storageError(err)
	}
	return nil
}

func (r *AccountRepository) Exists(ctx context.Context, identity domain.Identity) (bool, error) {
	if r.db == nil {
		return false, domain.ErrStorageUnavailable
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AccountModel{}).
		Where("identity = ?", string(identity)).
		Count(&count).Error
	if err != nil {
		return false, storageError(err)
	}
	return count > 0, nil
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/salonsync/salonsync/pkg/models"
)

// Account lookups used by the credential service. Registration and login are
// primary-store-only: accounts reach the mirror through the regular dual-store
// user resource, not through the auth flow.

// CountUsers returns the total number of registered accounts, enabled or not.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// FindUserByUsername returns the account for username, or nil when absent.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser persists a new account.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

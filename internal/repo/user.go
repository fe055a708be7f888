package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mvolkov/tasktracker/internal/hash"
	"github.com/mvolkov/tasktracker/internal/models"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfDelete         = errors.New("cannot delete own account")
	ErrLastAdmin          = errors.New("cannot delete the last admin")
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// CreateUser registers a new account with the "user" role. Uniqueness checks
// and the insert run in one transaction so two concurrent registrations with
// the same username cannot both succeed.
func (r *Repo) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	if len(username) < minUsernameLen {
		return nil, fmt.Errorf("%w: username must be at least %d characters", ErrValidation, minUsernameLen)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate reports the same error for an unknown username and a wrong
// password, so callers cannot probe which usernames exist.
func (r *Repo) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (r *Repo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repo) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteUser removes a user and cascades to their tasks in one transaction.
// Admins may never delete themselves, and the admin set may never be emptied
// by a delete.
func (r *Repo) DeleteUser(ctx context.Context, id, requestingAdminID uint) error {
	if id == requestingAdminID {
		return ErrSelfDelete
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.First(&target, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if target.Role == models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		if err := deleteAllTasksForUser(tx, id); err != nil {
			return err
		}

		return tx.Delete(&target).Error
	})
}

// EnsureAdmin seeds the first admin account. It is a no-op when any admin
// already exists.
func (r *Repo) EnsureAdmin(ctx context.Context, username, email, password string) error {
	var admins int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	user, err := r.CreateUser(ctx, username, email, password)
	if err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error
}

package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mvolkov/tasktracker/internal/models"
)

func newTestRepo(t *testing.T) *Repo {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	// a second pool connection would get its own private memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return New(db)
}

func createUser(t *testing.T, r *Repo, username string) *models.User {
	t.Helper()
	user, err := r.CreateUser(context.Background(), username, username+"@example.com", "password")
	require.NoError(t, err)
	return user
}

func createAdmin(t *testing.T, r *Repo, username string) *models.User {
	t.Helper()
	user := createUser(t, r, username)
	require.NoError(t, r.DB.Model(user).Update("role", models.RoleAdmin).Error)
	user.Role = models.RoleAdmin
	return user
}

// Package testutil opens throwaway sqlite databases for package tests.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/repository"
	"github.com/weiawesome/social-graph/pkg/database"
)

// User is the identity table the tests migrate next to the edge tables.
type User struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Username    string
	DisplayName string
	Password    string
}

func (User) TableName() string { return "users" }

// NewDB opens a private in-memory database with users, follows and blocks.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db, &User{}))
	require.NoError(t, repository.Migrate(context.Background(), db, "users", domain.Follow, domain.Block))
	return db
}

// SeedUsers inserts users with the given ids.
func SeedUsers(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.Create(&User{ID: id, Username: "user" + id, DisplayName: "User " + id, Password: "hash"}).Error)
	}
}

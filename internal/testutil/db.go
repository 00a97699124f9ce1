// Package testutil holds fixtures shared by repository, service and server tests.
package testutil

import (
	"testing"
	"time"

	"anoa.com/civicreport/internal/bootstrap"
	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/pkg/database"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Config(false))
	require.NoError(t, err, "failed opening in-memory sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) *entity.User {
	t.Helper()
	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsAdmin:      isAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateReport inserts a report with an explicit creation time so ordering
// tests do not depend on the clock.
func CreateReport(t *testing.T, db *gorm.DB, owner *entity.User, title, category string, createdAt time.Time) *entity.Report {
	t.Helper()
	publicID := "reports/" + title
	report := &entity.Report{
		Title:       title,
		Description: "a description long enough",
		Category:    category,
		UserID:      owner.ID,
		Image:       entity.Image{URL: "https://img.example.com/" + title, PublicID: &publicID},
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(report).Error)
	return report
}

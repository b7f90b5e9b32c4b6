package repo

import (
	"testing"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB connects to the integration database or skips the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "host=localhost user=htp password=htp dbname=htp_test port=15432 sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Skip("Test database not available, skipping integration tests")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.Ping() != nil {
		t.Skip("Test database not available, skipping integration tests")
		return nil
	}

	db.Exec("CREATE EXTENSION IF NOT EXISTS vector")
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Persona{},
		&model.DrawingTest{},
		&model.DrawingTestResult{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.RAGDocument{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	u := &model.User{Nickname: "tester", Status: model.UserStatusActive}
	require.NoError(t, db.Create(u).Error)
	t.Cleanup(func() { db.Where("user_id = ?", u.ID).Delete(&model.User{}) })
	return u
}

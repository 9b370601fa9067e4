package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wingetdepot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Setting{}))
	return db
}

func TestResolveSettingPersisted(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&models.Setting{Key: "repo_name", Value: "corp-repo"}).Error)

	assert.Equal(t, "corp-repo", ResolveSetting(db, "repo_name"))
	assert.Equal(t, "", ResolveSetting(db, "missing_key"))
}

func TestResolveSettingEnvOverride(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&models.Setting{Key: "repo_name", Value: "from-db"}).Error)

	t.Setenv("WINGETDEPOT_REPO_NAME", "from-env")
	assert.Equal(t, "from-env", ResolveSetting(db, "repo_name"))

	// Explicit empty env still overrides.
	t.Setenv("WINGETDEPOT_REPO_NAME", "")
	assert.Equal(t, "", ResolveSetting(db, "repo_name"))
}

func TestResolveBool(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&models.Setting{Key: "use_s3", Value: "true"}).Error)
	assert.True(t, ResolveBool(db, "use_s3"))

	t.Setenv("WINGETDEPOT_USE_S3", "off")
	assert.False(t, ResolveBool(db, "use_s3"))
}

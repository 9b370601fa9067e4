package logsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wingetdepot/internal/database"
	"wingetdepot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSinkPersistsEntries(t *testing.T) {
	db := testDB(t)
	sink := New(db)

	sink.Record(models.NewDownloadLog(7, "203.0.113.9", "winget/1.5"))
	sink.Record(models.NewAccessLog(1, "203.0.113.9", "curl/8", "Added package X"))
	sink.Close() // drains the queue

	var logs []models.Log
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, models.LogKindDownload, logs[0].Kind)
	require.NotNil(t, logs[0].InstallerID)
	assert.Equal(t, uint(7), *logs[0].InstallerID)
	assert.Nil(t, logs[0].UserID)

	assert.Equal(t, models.LogKindAccess, logs[1].Kind)
	require.NotNil(t, logs[1].Action)
	assert.Equal(t, "Added package X", *logs[1].Action)
}

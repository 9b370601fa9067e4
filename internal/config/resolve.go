package config

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"wingetdepot/internal/models"
)

// EnvPrefix marks environment variables that override persisted settings,
// e.g. WINGETDEPOT_USE_S3=true wins over the use_s3 row in the database.
const EnvPrefix = "WINGETDEPOT_"

// ResolveSetting returns the effective value for a setting key:
// environment override first, then the persisted setting, then empty.
func ResolveSetting(db *gorm.DB, key string) string {
	if v, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(key)); ok {
		return v
	}
	var s models.Setting
	if err := db.Where("key = ?", key).First(&s).Error; err != nil {
		return ""
	}
	return s.Value
}

// ResolveBool is ResolveSetting for boolean settings.
func ResolveBool(db *gorm.DB, key string) bool {
	switch strings.ToLower(ResolveSetting(db, key)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

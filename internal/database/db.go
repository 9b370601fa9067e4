package database

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wingetdepot/internal/config"
	"wingetdepot/internal/models"
)

var DB *gorm.DB

func Connect(dsn string) error {
	if dsn == "" {
		return errors.New("empty DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)

	DB = db
	return nil
}

func AutoMigrateAndSeed() error {
	if err := Migrate(DB); err != nil {
		return err
	}
	if err := seedAdmin(DB); err != nil {
		return err
	}
	return seedSettings(DB)
}

// Migrate creates or updates the schema for every catalog entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Package{},
		&models.PackageVersion{},
		&models.Installer{},
		&models.InstallerSwitch{},
		&models.NestedInstallerFile{},
		&models.User{},
		&models.Setting{},
		&models.Log{},
	)
}

func seedAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}
	user := models.User{
		Email:    config.Current.AdminEmail,
		Username: "admin",
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := user.SetPassword(config.Current.AdminPassword); err != nil {
		return err
	}
	return db.Create(&user).Error
}

// defaultSettings are created once and updated in place; rows with keys
// no longer listed here are removed.
var defaultSettings = []models.Setting{
	{Key: "repo_name", Name: "Repository name", Description: "The source identifier reported to WinGet clients.", Type: "string", Value: "wingetdepot", Position: 0},
	{Key: "use_s3", Name: "Use S3 for storage", Description: "Store installer content in an S3-compatible bucket instead of the local filesystem.", Type: "boolean", Value: "false", Position: 1},
	{Key: "s3_endpoint", Name: "S3 endpoint", Description: "Custom endpoint for S3-compatible stores such as MinIO.", Type: "string", DependsOn: "use_s3", Position: 2},
	{Key: "s3_bucket_name", Name: "S3 bucket", Description: "The bucket holding installer content.", Type: "string", DependsOn: "use_s3", Position: 3},
	{Key: "s3_region", Name: "S3 region", Type: "string", DependsOn: "use_s3", Position: 4},
	{Key: "s3_access_key_id", Name: "S3 access key ID", Type: "string", DependsOn: "use_s3", Position: 5},
	{Key: "s3_secret_access_key", Name: "S3 secret access key", Type: "string", DependsOn: "use_s3", Position: 6},
}

func seedSettings(db *gorm.DB) error {
	keys := make([]string, 0, len(defaultSettings))
	for _, def := range defaultSettings {
		keys = append(keys, def.Key)
		var existing models.Setting
		err := db.Where("key = ?", def.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def := def
			if err := db.Create(&def).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		// Refresh metadata but never overwrite a configured value.
		existing.Name = def.Name
		existing.Description = def.Description
		existing.DependsOn = def.DependsOn
		existing.Position = def.Position
		if err := db.Save(&existing).Error; err != nil {
			return err
		}
	}
	return db.Where("key NOT IN ?", keys).Delete(&models.Setting{}).Error
}

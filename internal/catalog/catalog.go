// Package catalog is the data model of record: packages, versions,
// installers and their children, with every mutation committed as a
// single transaction and content-store writes sequenced so a catalog
// row never points at missing content.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"wingetdepot/internal/models"
	"wingetdepot/internal/storage"
)

var (
	ErrPackageNotFound      = errors.New("package not found")
	ErrVersionNotFound      = errors.New("package version not found")
	ErrInstallerNotFound    = errors.New("installer not found")
	ErrDuplicateIdentifier  = errors.New("package identifier already exists")
	ErrInvalidVersion       = errors.New("invalid version code")
	ErrMissingContentSource = errors.New("either a file or an external URL must be provided")
	ErrNestedPairRequired   = errors.New("nested installer type and path must be provided together")
)

type Catalog struct {
	db     *gorm.DB
	store  storage.Store
	hasher *storage.URLHasher
}

func New(db *gorm.DB, store storage.Store, hasher *storage.URLHasher) *Catalog {
	return &Catalog{db: db, store: store, hasher: hasher}
}

// DB exposes the underlying handle for read-only collaborators.
func (c *Catalog) DB() *gorm.DB { return c.db }

// Store exposes the content store backing this catalog.
func (c *Catalog) Store() storage.Store { return c.store }

// InstallerInput carries everything needed to create one installer.
// File wins over ExternalURL when both are present; S3Staged marks
// content the client already uploaded to the bucket via a presigned PUT.
type InstallerInput struct {
	Architecture  string
	InstallerType string
	Scope         string

	File       io.Reader
	UploadName string

	ExternalURL string
	S3Staged    bool

	NestedInstallerType string
	NestedInstallerPath string

	Switches map[string]string
}

// ValidateVersionCode checks that v parses as a loose semver-like
// version string.
func ValidateVersionCode(v string) error {
	if _, err := goversion.NewVersion(v); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return nil
}

func (c *Catalog) GetPackage(identifier string) (*models.Package, error) {
	var pkg models.Package
	err := c.db.
		Preload("Versions.Installers.Switches").
		Preload("Versions.Installers.NestedInstallerFiles").
		Where("identifier = ?", identifier).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (c *Catalog) ListPackages(page, limit int, search string) ([]models.Package, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	q := c.db.Model(&models.Package{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("lower(name) LIKE ? OR lower(identifier) LIKE ? OR lower(publisher) LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var pkgs []models.Package
	err := q.Preload("Versions.Installers.Switches").
		Preload("Versions.Installers.NestedInstallerFiles").
		Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&pkgs).Error
	return pkgs, total, err
}

func (c *Catalog) GetVersion(identifier, versionCode string) (*models.Package, *models.PackageVersion, error) {
	pkg, err := c.packageOnly(identifier)
	if err != nil {
		return nil, nil, err
	}
	var ver models.PackageVersion
	err = c.db.Preload("Installers.Switches").Preload("Installers.NestedInstallerFiles").
		Where("package_id = ? AND version_code = ?", pkg.ID, versionCode).
		First(&ver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrVersionNotFound
		}
		return nil, nil, err
	}
	return pkg, &ver, nil
}

func (c *Catalog) GetInstaller(id uint) (*models.Installer, error) {
	var inst models.Installer
	err := c.db.Preload("Switches").Preload("NestedInstallerFiles").First(&inst, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstallerNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// ResolveInstaller walks package -> version -> installer for a download
// request, returning a distinct not-found error at each step. An
// installer stored with scope "both" serves requests for either scope.
func (c *Catalog) ResolveInstaller(identifier, versionCode, architecture, scope string) (*models.Package, *models.PackageVersion, *models.Installer, error) {
	pkg, ver, err := c.GetVersion(identifier, versionCode)
	if err != nil {
		return nil, nil, nil, err
	}
	var inst models.Installer
	err = c.db.Where("version_id = ? AND architecture = ? AND (scope = ? OR scope = ?)",
		ver.ID, architecture, scope, models.ScopeBoth).
		First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrInstallerNotFound
		}
		return nil, nil, nil, err
	}
	return pkg, ver, &inst, nil
}

// CreatePackage registers a new package, optionally together with its
// first version and installer in the same transaction.
func (c *Catalog) CreatePackage(ctx context.Context, name, publisher, identifier, versionCode string, in *InstallerInput) (*models.Package, error) {
	var existing models.Package
	if err := c.db.Where("identifier = ?", identifier).First(&existing).Error; err == nil {
		return nil, ErrDuplicateIdentifier
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pkg := models.Package{Identifier: identifier, Name: name, Publisher: publisher}

	var contentKey string
	if in != nil && versionCode != "" {
		if err := ValidateVersionCode(versionCode); err != nil {
			return nil, err
		}
		installer, key, err := c.buildInstaller(ctx, publisher, identifier, versionCode, *in)
		if err != nil {
			return nil, err
		}
		contentKey = key
		pkg.Versions = []models.PackageVersion{{
			VersionCode:      versionCode,
			PackageLocale:    "en-US",
			ShortDescription: name,
			Installers:       []models.Installer{*installer},
		}}
	}

	if err := c.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		c.cleanupContent(ctx, contentKey)
		return nil, err
	}
	return &pkg, nil
}

func (c *Catalog) UpdatePackage(identifier, name, publisher string) (*models.Package, error) {
	pkg, err := c.packageOnly(identifier)
	if err != nil {
		return nil, err
	}
	pkg.Name = name
	pkg.Publisher = publisher
	if err := c.db.Save(pkg).Error; err != nil {
		return nil, err
	}
	return pkg, nil
}

// AddVersion creates a version, optionally with its first installer,
// committing the whole addition as a unit.
func (c *Catalog) AddVersion(ctx context.Context, identifier, versionCode string, in *InstallerInput) (*models.PackageVersion, error) {
	pkg, err := c.packageOnly(identifier)
	if err != nil {
		return nil, err
	}
	if err := ValidateVersionCode(versionCode); err != nil {
		return nil, err
	}

	ver := models.PackageVersion{
		PackageID:        pkg.ID,
		VersionCode:      versionCode,
		PackageLocale:    "en-US",
		ShortDescription: pkg.Name,
	}

	var contentKey string
	if in != nil {
		installer, key, err := c.buildInstaller(ctx, pkg.Publisher, identifier, versionCode, *in)
		if err != nil {
			return nil, err
		}
		contentKey = key
		ver.Installers = []models.Installer{*installer}
	}

	if err := c.db.WithContext(ctx).Create(&ver).Error; err != nil {
		c.cleanupContent(ctx, contentKey)
		return nil, err
	}
	return &ver, nil
}

// AddInstaller attaches an installer to an existing version. Content is
// stored before the catalog row is committed; if the commit fails the
// stored object is removed again.
func (c *Catalog) AddInstaller(ctx context.Context, identifier, versionCode string, in InstallerInput) (*models.Installer, error) {
	pkg, ver, err := c.GetVersion(identifier, versionCode)
	if err != nil {
		return nil, err
	}
	installer, contentKey, err := c.buildInstaller(ctx, pkg.Publisher, identifier, versionCode, in)
	if err != nil {
		return nil, err
	}
	installer.VersionID = ver.ID
	if err := c.db.WithContext(ctx).Create(installer).Error; err != nil {
		c.cleanupContent(ctx, contentKey)
		return nil, err
	}
	return installer, nil
}

// ReconcileSwitches replaces an installer's switch set wholesale: every
// allow-listed key present in provided is upserted, every absent one is
// deleted. Keys outside the allow-list are ignored.
func (c *Catalog) ReconcileSwitches(ctx context.Context, installerID uint, provided map[string]string) error {
	if _, err := c.GetInstaller(installerID); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range models.InstallerSwitchKeys {
			value, ok := provided[key]
			if !ok {
				if err := tx.Where("installer_id = ? AND parameter = ?", installerID, key).
					Delete(&models.InstallerSwitch{}).Error; err != nil {
					return err
				}
				continue
			}
			var sw models.InstallerSwitch
			err := tx.Where("installer_id = ? AND parameter = ?", installerID, key).First(&sw).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				sw = models.InstallerSwitch{InstallerID: installerID, Parameter: key, Value: value}
				if err := tx.Create(&sw).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				sw.Value = value
				if err := tx.Save(&sw).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeletePackage removes a package and everything under it. Stored
// content is deleted first; any content-store failure aborts the whole
// delete so the catalog is never left pointing at missing objects.
func (c *Catalog) DeletePackage(ctx context.Context, identifier string) error {
	pkg, err := c.GetPackage(identifier)
	if err != nil {
		return err
	}
	for i := range pkg.Versions {
		ver := &pkg.Versions[i]
		for j := range ver.Installers {
			if err := c.deleteContent(ctx, pkg, ver.VersionCode, &ver.Installers[j]); err != nil {
				return err
			}
		}
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range pkg.Versions {
			if err := deleteVersionRows(tx, &pkg.Versions[i]); err != nil {
				return err
			}
		}
		return tx.Delete(&models.Package{}, pkg.ID).Error
	})
}

// DeleteVersion removes one version and its installers, content first.
func (c *Catalog) DeleteVersion(ctx context.Context, identifier, versionCode string) error {
	pkg, ver, err := c.GetVersion(identifier, versionCode)
	if err != nil {
		return err
	}
	for i := range ver.Installers {
		if err := c.deleteContent(ctx, pkg, ver.VersionCode, &ver.Installers[i]); err != nil {
			return err
		}
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteVersionRows(tx, ver)
	})
}

// DeleteInstaller removes a single installer, content first.
func (c *Catalog) DeleteInstaller(ctx context.Context, identifier, versionCode string, installerID uint) error {
	pkg, ver, err := c.GetVersion(identifier, versionCode)
	if err != nil {
		return err
	}
	var inst *models.Installer
	for i := range ver.Installers {
		if ver.Installers[i].ID == installerID {
			inst = &ver.Installers[i]
			break
		}
	}
	if inst == nil {
		return ErrInstallerNotFound
	}
	if err := c.deleteContent(ctx, pkg, ver.VersionCode, inst); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteInstallerRows(tx, inst)
	})
}

// IncrementDownloadCount bumps the package counter with an atomic SQL
// update so concurrent downloads never lose increments.
func (c *Catalog) IncrementDownloadCount(packageID uint) error {
	return c.db.Model(&models.Package{}).
		Where("id = ?", packageID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

// ContentKey is the canonical storage key for a stored installer.
func ContentKey(pkg *models.Package, versionCode string, inst *models.Installer) string {
	return storage.ObjectKey(pkg.Publisher, pkg.Identifier, versionCode, inst.Architecture, *inst.FileName)
}

func (c *Catalog) packageOnly(identifier string) (*models.Package, error) {
	var pkg models.Package
	if err := c.db.Where("identifier = ?", identifier).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

// buildInstaller stages content and assembles the installer row. It
// returns the object key it wrote, if any, so callers can clean up when
// the surrounding commit fails.
func (c *Catalog) buildInstaller(ctx context.Context, publisher, identifier, versionCode string, in InstallerInput) (*models.Installer, string, error) {
	installer := &models.Installer{
		Architecture:  in.Architecture,
		InstallerType: in.InstallerType,
		Scope:         in.Scope,
	}

	var contentKey string
	switch {
	case in.File != nil:
		fileName := storage.StoredFileName(in.Scope, in.UploadName)
		key := storage.ObjectKey(publisher, identifier, versionCode, in.Architecture, fileName)
		sha, _, err := c.store.Put(ctx, key, in.File)
		if err != nil {
			return nil, "", err
		}
		contentKey = key
		installer.FileName = &fileName
		installer.InstallerSha256 = sha

	case in.ExternalURL != "" && in.S3Staged:
		// Content was already PUT to the bucket by the client via a
		// presigned URL; hash it through a presigned GET without pulling
		// it onto local disk. The stored name must match the key the
		// presign endpoint issued: {scope}.{ext}.
		fileName := storage.StoredFileName(in.Scope, in.ExternalURL)
		key := storage.ObjectKey(publisher, identifier, versionCode, in.Architecture, fileName)
		presigned, err := c.store.PresignGet(ctx, key, fileName)
		if err != nil {
			return nil, "", err
		}
		sha, err := c.hasher.Hash(ctx, presigned)
		if err != nil {
			return nil, "", err
		}
		installer.FileName = &fileName
		installer.InstallerSha256 = sha

	case in.ExternalURL != "":
		sha, err := c.hasher.Hash(ctx, in.ExternalURL)
		if err != nil {
			return nil, "", err
		}
		url := in.ExternalURL
		installer.ExternalURL = &url
		installer.InstallerSha256 = sha

	default:
		return nil, "", ErrMissingContentSource
	}

	switch {
	case in.NestedInstallerType != "" && in.NestedInstallerPath != "":
		nt := in.NestedInstallerType
		installer.NestedInstallerType = &nt
		installer.NestedInstallerFiles = []models.NestedInstallerFile{
			{RelativeFilePath: in.NestedInstallerPath},
		}
	case in.NestedInstallerType != "" || in.NestedInstallerPath != "":
		c.cleanupContent(ctx, contentKey)
		return nil, "", ErrNestedPairRequired
	}

	for _, key := range models.InstallerSwitchKeys {
		if value, ok := in.Switches[key]; ok {
			installer.Switches = append(installer.Switches, models.InstallerSwitch{
				Parameter: key,
				Value:     value,
			})
		}
	}

	return installer, contentKey, nil
}

func (c *Catalog) deleteContent(ctx context.Context, pkg *models.Package, versionCode string, inst *models.Installer) error {
	if !inst.Stored() {
		return nil
	}
	key := ContentKey(pkg, versionCode, inst)
	if err := c.store.Delete(ctx, key); err != nil {
		return err
	}
	log.Info().Str("key", key).Msg("deleted installer content")
	return nil
}

// cleanupContent removes an object written ahead of a catalog commit
// that did not go through. Best effort: a failure here only leaks an
// orphan object, never an inconsistent catalog row.
func (c *Catalog) cleanupContent(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("orphaned content left behind after failed commit")
	}
}

func deleteVersionRows(tx *gorm.DB, ver *models.PackageVersion) error {
	for i := range ver.Installers {
		if err := deleteInstallerRows(tx, &ver.Installers[i]); err != nil {
			return err
		}
	}
	return tx.Delete(&models.PackageVersion{}, ver.ID).Error
}

func deleteInstallerRows(tx *gorm.DB, inst *models.Installer) error {
	if err := tx.Where("installer_id = ?", inst.ID).Delete(&models.InstallerSwitch{}).Error; err != nil {
		return err
	}
	if err := tx.Where("installer_id = ?", inst.ID).Delete(&models.NestedInstallerFile{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Installer{}, inst.ID).Error
}

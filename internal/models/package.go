package models

import "time"

// Installer scopes. ScopeBoth is a storage shorthand that is expanded
// into user+machine entries when the manifest is generated.
const (
	ScopeUser    = "user"
	ScopeMachine = "machine"
	ScopeBoth    = "both"
)

var (
	Architectures        = []string{"x86", "x64", "arm", "arm64"}
	InstallerTypes       = []string{"exe", "msi", "msix", "appx", "zip", "inno", "nullsoft", "wix", "burn", "pwa", "msstore"}
	InstallerScopes      = []string{ScopeUser, ScopeMachine, ScopeBoth}
	NestedInstallerTypes = []string{"msi", "msix", "appx", "exe", "inno", "nullsoft", "wix", "burn", "portable"}

	// InstallerSwitchKeys is the fixed allow-list of silent-install
	// switch parameters. Switch edits reconcile against this list.
	InstallerSwitchKeys = []string{"silent", "silent_with_progress", "interactive", "install_location", "log", "upgrade", "custom"}
)

// Package is the root catalog entity. The identifier is the stable key
// WinGet clients address packages by and must never change once published.
type Package struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Identifier    string `gorm:"uniqueIndex;size:128;not null" json:"identifier"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Publisher     string `gorm:"size:255;not null" json:"publisher"`
	DownloadCount int64  `gorm:"not null;default:0" json:"download_count"`

	Versions []PackageVersion `gorm:"foreignKey:PackageID" json:"versions,omitempty"`
}

// PackageVersion holds one release of a package. The version code is a
// free-form version string; ordering is loose-semver for display only.
type PackageVersion struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PackageID        uint   `gorm:"not null;index;uniqueIndex:uniq_pkg_version" json:"package_id"`
	VersionCode      string `gorm:"size:64;not null;uniqueIndex:uniq_pkg_version" json:"version_code"`
	PackageLocale    string `gorm:"size:16;not null;default:'en-US'" json:"package_locale"`
	ShortDescription string `gorm:"size:255" json:"short_description"`

	Installers []Installer `gorm:"foreignKey:VersionID" json:"installers,omitempty"`
}

// Installer describes one installable artifact. Exactly one of FileName
// and ExternalURL is set: FileName for content held in the content store,
// ExternalURL for installers hosted elsewhere.
type Installer struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	VersionID           uint    `gorm:"not null;index" json:"version_id"`
	Architecture        string  `gorm:"size:16;not null" json:"architecture"`
	InstallerType       string  `gorm:"size:16;not null" json:"installer_type"`
	Scope               string  `gorm:"size:16;not null" json:"scope"`
	FileName            *string `gorm:"size:255" json:"file_name"`
	ExternalURL         *string `gorm:"size:512" json:"external_url"`
	InstallerSha256     string  `gorm:"size:64;not null" json:"installer_sha256"`
	NestedInstallerType *string `gorm:"size:16" json:"nested_installer_type"`

	Switches             []InstallerSwitch     `gorm:"foreignKey:InstallerID" json:"switches,omitempty"`
	NestedInstallerFiles []NestedInstallerFile `gorm:"foreignKey:InstallerID" json:"nested_installer_files,omitempty"`
}

// Stored reports whether the installer's bytes live in the content store.
func (i *Installer) Stored() bool {
	return i.ExternalURL == nil && i.FileName != nil && *i.FileName != ""
}

// InstallerSwitch is a silent-install command line argument, unique per
// (installer, parameter).
type InstallerSwitch struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	InstallerID uint   `gorm:"not null;uniqueIndex:uniq_installer_switch" json:"installer_id"`
	Parameter   string `gorm:"size:64;not null;uniqueIndex:uniq_installer_switch" json:"parameter"`
	Value       string `gorm:"size:255" json:"value"`
}

// NestedInstallerFile describes an entry inside a zip installer.
type NestedInstallerFile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	InstallerID         uint   `gorm:"not null;index" json:"installer_id"`
	RelativeFilePath    string `gorm:"size:255;not null" json:"relative_file_path"`
	PortableCommandAlias string `gorm:"size:128" json:"portable_command_alias"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ValidArchitecture reports whether v is a supported installer architecture.
func ValidArchitecture(v string) bool { return contains(Architectures, v) }

// ValidInstallerType reports whether v is a supported installer type.
func ValidInstallerType(v string) bool { return contains(InstallerTypes, v) }

// ValidScope reports whether v is a supported installer scope.
func ValidScope(v string) bool { return contains(InstallerScopes, v) }

// ValidNestedInstallerType reports whether v may appear inside a zip installer.
func ValidNestedInstallerType(v string) bool { return contains(NestedInstallerTypes, v) }

// ValidSwitchKey reports whether v is in the switch allow-list.
func ValidSwitchKey(v string) bool { return contains(InstallerSwitchKeys, v) }

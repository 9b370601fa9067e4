// Package manifest projects catalog entities into the two wire shapes
// the WinGet client consumes: the full package manifest and the lighter
// search-result summary. Field names are part of the protocol and must
// not change.
package manifest

import (
	"fmt"
	"net/url"
	"sort"

	goversion "github.com/hashicorp/go-version"

	"wingetdepot/internal/models"
)

type Document struct {
	Data PackageManifest `json:"Data"`
}

type PackageManifest struct {
	PackageIdentifier string            `json:"PackageIdentifier"`
	Versions          []VersionManifest `json:"Versions"`
}

type VersionManifest struct {
	PackageVersion string              `json:"PackageVersion"`
	DefaultLocale  Locale              `json:"DefaultLocale"`
	Installers     []InstallerManifest `json:"Installers"`
}

type Locale struct {
	PackageLocale    string `json:"PackageLocale"`
	Publisher        string `json:"Publisher"`
	PackageName      string `json:"PackageName"`
	ShortDescription string `json:"ShortDescription"`
}

type InstallerManifest struct {
	Architecture         string            `json:"Architecture"`
	InstallerType        string            `json:"InstallerType"`
	InstallerURL         string            `json:"InstallerUrl"`
	InstallerSha256      string            `json:"InstallerSha256"`
	Scope                string            `json:"Scope"`
	InstallerSwitches    map[string]string `json:"InstallerSwitches"`
	NestedInstallerType  string            `json:"NestedInstallerType,omitempty"`
	NestedInstallerFiles []NestedFile      `json:"NestedInstallerFiles,omitempty"`
}

type NestedFile struct {
	RelativeFilePath     string `json:"RelativeFilePath"`
	PortableCommandAlias string `json:"PortableCommandAlias"`
}

type Summary struct {
	PackageIdentifier string           `json:"PackageIdentifier"`
	PackageName       string           `json:"PackageName"`
	Publisher         string           `json:"Publisher"`
	Versions          []SummaryVersion `json:"Versions"`
}

type SummaryVersion struct {
	PackageVersion string `json:"PackageVersion"`
}

// Project builds the full manifest for a package. Versions without any
// installer are omitted entirely; the client errors on empty installer
// lists. baseURL is the server's external root (absolute, https).
func Project(pkg *models.Package, baseURL string) Document {
	doc := Document{Data: PackageManifest{
		PackageIdentifier: pkg.Identifier,
		Versions:          []VersionManifest{},
	}}
	versions := sortedVersions(pkg.Versions)
	for i := range versions {
		ver := &versions[i]
		if len(ver.Installers) == 0 {
			continue
		}
		doc.Data.Versions = append(doc.Data.Versions, VersionManifest{
			PackageVersion: ver.VersionCode,
			DefaultLocale: Locale{
				PackageLocale:    ver.PackageLocale,
				Publisher:        pkg.Publisher,
				PackageName:      pkg.Name,
				ShortDescription: ver.ShortDescription,
			},
			Installers: projectInstallers(pkg, ver, baseURL),
		})
	}
	return doc
}

// ProjectSummary builds the search-result shape: identifier, name,
// publisher and the version codes that have at least one installer.
func ProjectSummary(pkg *models.Package) Summary {
	out := Summary{
		PackageIdentifier: pkg.Identifier,
		PackageName:       pkg.Name,
		Publisher:         pkg.Publisher,
		Versions:          []SummaryVersion{},
	}
	for i := range pkg.Versions {
		if len(pkg.Versions[i].Installers) == 0 {
			continue
		}
		out.Versions = append(out.Versions, SummaryVersion{PackageVersion: pkg.Versions[i].VersionCode})
	}
	return out
}

// HasInstallers reports whether any version of the package carries at
// least one installer, i.e. whether the package may appear in output.
func HasInstallers(pkg *models.Package) bool {
	for i := range pkg.Versions {
		if len(pkg.Versions[i].Installers) > 0 {
			return true
		}
	}
	return false
}

func projectInstallers(pkg *models.Package, ver *models.PackageVersion, baseURL string) []InstallerManifest {
	out := make([]InstallerManifest, 0, len(ver.Installers))
	for i := range ver.Installers {
		inst := &ver.Installers[i]
		// "both" is a storage shorthand: emit one entry per effective
		// scope, both addressed by the canonical stored scope so the
		// download URL stays deterministic.
		scopes := []string{inst.Scope}
		if inst.Scope == models.ScopeBoth {
			scopes = []string{models.ScopeUser, models.ScopeMachine}
		}
		for _, scope := range scopes {
			entry := InstallerManifest{
				Architecture:      inst.Architecture,
				InstallerType:     inst.InstallerType,
				InstallerURL:      DownloadURL(baseURL, pkg.Identifier, ver.VersionCode, inst.Architecture, inst.Scope),
				InstallerSha256:   inst.InstallerSha256,
				Scope:             scope,
				InstallerSwitches: switchMap(inst),
			}
			if inst.InstallerType == "zip" {
				if inst.NestedInstallerType != nil {
					entry.NestedInstallerType = *inst.NestedInstallerType
				}
				entry.NestedInstallerFiles = nestedFiles(inst)
			}
			out = append(out, entry)
		}
	}
	return out
}

// DownloadURL builds the self-referential installer address served to
// clients. The scope is always the stored one, even for expanded "both"
// entries.
func DownloadURL(baseURL, identifier, versionCode, architecture, scope string) string {
	return fmt.Sprintf("%s/api/download/%s/%s/%s/%s",
		baseURL,
		url.PathEscape(identifier),
		url.PathEscape(versionCode),
		url.PathEscape(architecture),
		url.PathEscape(scope),
	)
}

func switchMap(inst *models.Installer) map[string]string {
	m := make(map[string]string, len(inst.Switches))
	for _, sw := range inst.Switches {
		m[sw.Parameter] = sw.Value
	}
	return m
}

func nestedFiles(inst *models.Installer) []NestedFile {
	out := make([]NestedFile, 0, len(inst.NestedInstallerFiles))
	for _, nf := range inst.NestedInstallerFiles {
		out = append(out, NestedFile{
			RelativeFilePath:     nf.RelativeFilePath,
			PortableCommandAlias: nf.PortableCommandAlias,
		})
	}
	return out
}

// sortedVersions orders versions newest first using loose version
// comparison; unparseable codes sort last in plain string order.
func sortedVersions(versions []models.PackageVersion) []models.PackageVersion {
	out := make([]models.PackageVersion, len(versions))
	copy(out, versions)
	sort.SliceStable(out, func(i, j int) bool {
		vi, erri := goversion.NewVersion(out[i].VersionCode)
		vj, errj := goversion.NewVersion(out[j].VersionCode)
		switch {
		case erri == nil && errj == nil:
			return vi.GreaterThan(vj)
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return out[i].VersionCode > out[j].VersionCode
		}
	})
	return out
}

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wingetdepot/internal/models"
)

func strptr(s string) *string { return &s }

func testPackage() *models.Package {
	return &models.Package{
		Identifier: "Contoso.App",
		Name:       "Contoso App",
		Publisher:  "Contoso",
	}
}

func TestProjectExpandsBothScope(t *testing.T) {
	pkg := testPackage()
	pkg.Versions = []models.PackageVersion{{
		VersionCode:      "1.0.0",
		PackageLocale:    "en-US",
		ShortDescription: "Contoso App",
		Installers: []models.Installer{{
			Architecture:    "x64",
			InstallerType:   "msi",
			Scope:           models.ScopeBoth,
			FileName:        strptr("both.msi"),
			InstallerSha256: "abc123",
		}},
	}}

	doc := Project(pkg, "https://repo.example.com")
	require.Len(t, doc.Data.Versions, 1)
	installers := doc.Data.Versions[0].Installers
	require.Len(t, installers, 2)

	assert.Equal(t, "user", installers[0].Scope)
	assert.Equal(t, "machine", installers[1].Scope)
	// Both entries share the hash and the canonical stored-scope URL.
	assert.Equal(t, installers[0].InstallerSha256, installers[1].InstallerSha256)
	assert.Equal(t, installers[0].InstallerURL, installers[1].InstallerURL)
	assert.Equal(t,
		"https://repo.example.com/api/download/Contoso.App/1.0.0/x64/both",
		installers[0].InstallerURL)
}

func TestProjectOmitsEmptyVersions(t *testing.T) {
	pkg := testPackage()
	pkg.Versions = []models.PackageVersion{
		{VersionCode: "1.0.0", PackageLocale: "en-US"},
		{
			VersionCode:   "2.0.0",
			PackageLocale: "en-US",
			Installers: []models.Installer{{
				Architecture: "x64", InstallerType: "exe", Scope: models.ScopeUser,
				FileName: strptr("user.exe"), InstallerSha256: "abc",
			}},
		},
	}

	doc := Project(pkg, "https://repo.example.com")
	require.Len(t, doc.Data.Versions, 1)
	assert.Equal(t, "2.0.0", doc.Data.Versions[0].PackageVersion)
}

func TestProjectVersionOrdering(t *testing.T) {
	pkg := testPackage()
	inst := func() []models.Installer {
		return []models.Installer{{
			Architecture: "x64", InstallerType: "exe", Scope: models.ScopeUser,
			FileName: strptr("user.exe"), InstallerSha256: "abc",
		}}
	}
	pkg.Versions = []models.PackageVersion{
		{VersionCode: "1.2.0", Installers: inst()},
		{VersionCode: "1.10.0", Installers: inst()},
		{VersionCode: "1.0.0", Installers: inst()},
	}

	doc := Project(pkg, "https://repo.example.com")
	require.Len(t, doc.Data.Versions, 3)
	// Newest first, numerically: 1.10.0 outranks 1.2.0.
	assert.Equal(t, "1.10.0", doc.Data.Versions[0].PackageVersion)
	assert.Equal(t, "1.2.0", doc.Data.Versions[1].PackageVersion)
	assert.Equal(t, "1.0.0", doc.Data.Versions[2].PackageVersion)
}

func TestProjectZipNesting(t *testing.T) {
	pkg := testPackage()
	pkg.Versions = []models.PackageVersion{{
		VersionCode: "1.0.0",
		Installers: []models.Installer{{
			Architecture:        "x64",
			InstallerType:       "zip",
			Scope:               models.ScopeUser,
			FileName:            strptr("user.zip"),
			InstallerSha256:     "abc",
			NestedInstallerType: strptr("msi"),
			NestedInstallerFiles: []models.NestedInstallerFile{
				{RelativeFilePath: "inner/setup.msi"},
			},
		}},
	}}

	doc := Project(pkg, "https://repo.example.com")
	inst := doc.Data.Versions[0].Installers[0]
	assert.Equal(t, "msi", inst.NestedInstallerType)
	require.Len(t, inst.NestedInstallerFiles, 1)
	assert.Equal(t, "inner/setup.msi", inst.NestedInstallerFiles[0].RelativeFilePath)
}

func TestProjectSwitches(t *testing.T) {
	pkg := testPackage()
	pkg.Versions = []models.PackageVersion{{
		VersionCode: "1.0.0",
		Installers: []models.Installer{{
			Architecture: "x64", InstallerType: "exe", Scope: models.ScopeUser,
			FileName: strptr("user.exe"), InstallerSha256: "abc",
			Switches: []models.InstallerSwitch{
				{Parameter: "silent", Value: "/S"},
				{Parameter: "install_location", Value: "/D="},
			},
		}},
	}}

	doc := Project(pkg, "https://repo.example.com")
	sw := doc.Data.Versions[0].Installers[0].InstallerSwitches
	assert.Equal(t, map[string]string{"silent": "/S", "install_location": "/D="}, sw)
}

func TestProjectSummary(t *testing.T) {
	pkg := testPackage()
	pkg.Versions = []models.PackageVersion{
		{VersionCode: "1.0.0"},
		{VersionCode: "2.0.0", Installers: []models.Installer{{
			Architecture: "x64", InstallerType: "exe", Scope: models.ScopeUser,
			FileName: strptr("user.exe"), InstallerSha256: "abc",
		}}},
	}

	sum := ProjectSummary(pkg)
	assert.Equal(t, "Contoso.App", sum.PackageIdentifier)
	assert.Equal(t, "Contoso App", sum.PackageName)
	assert.Equal(t, "Contoso", sum.Publisher)
	require.Len(t, sum.Versions, 1)
	assert.Equal(t, "2.0.0", sum.Versions[0].PackageVersion)
}

func TestDownloadURLEscapesSegments(t *testing.T) {
	got := DownloadURL("https://repo.example.com", "Has Space.App", "1.0.0", "x64", "user")
	assert.Equal(t, "https://repo.example.com/api/download/Has%20Space.App/1.0.0/x64/user", got)
}

func TestHasInstallers(t *testing.T) {
	pkg := testPackage()
	assert.False(t, HasInstallers(pkg))
	pkg.Versions = []models.PackageVersion{{VersionCode: "1.0.0"}}
	assert.False(t, HasInstallers(pkg))
	pkg.Versions[0].Installers = []models.Installer{{Architecture: "x64"}}
	assert.True(t, HasInstallers(pkg))
}

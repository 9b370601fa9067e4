package search

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

func strptr(s string) *string { return &s }

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

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	pkgs := []models.Package{
		{
			Identifier: "Contoso.App",
			Name:       "Contoso App",
			Publisher:  "Contoso",
			Versions: []models.PackageVersion{{
				VersionCode: "1.0.0",
				Installers: []models.Installer{{
					Architecture: "x64", InstallerType: "msi", Scope: "user",
					FileName: strptr("user.msi"), InstallerSha256: "abc",
				}},
			}},
		},
		{
			Identifier: "Fabrikam.Tool",
			Name:       "Fabrikam Tool",
			Publisher:  "Fabrikam",
			Versions: []models.PackageVersion{{
				VersionCode: "2.0.0",
				Installers: []models.Installer{{
					Architecture: "x64", InstallerType: "exe", Scope: "machine",
					FileName: strptr("machine.exe"), InstallerSha256: "def",
				}},
			}},
		},
		{
			// Matches textually but has no installers: never in results.
			Identifier: "Contoso.Empty",
			Name:       "Contoso Empty",
			Publisher:  "Contoso",
			Versions:   []models.PackageVersion{{VersionCode: "1.0.0"}},
		},
	}
	for i := range pkgs {
		require.NoError(t, db.Create(&pkgs[i]).Error)
	}
}

func TestResolveExact(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	pkgs, err := Resolve(db, Request{Query: &RequestMatch{KeyWord: "Contoso.App", MatchType: MatchExact}})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Contoso.App", pkgs[0].Identifier)

	// Exact means exact: a near miss finds nothing.
	pkgs, err = Resolve(db, Request{Query: &RequestMatch{KeyWord: "Contoso.Ap", MatchType: MatchExact}})
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestResolvePartialCaseInsensitive(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	for _, mt := range []string{MatchPartial, MatchSubstring, MatchCaseInsensitive} {
		pkgs, err := Resolve(db, Request{Query: &RequestMatch{KeyWord: "cOnToSo.aP", MatchType: mt}})
		require.NoError(t, err, mt)
		require.Len(t, pkgs, 1, mt)
		assert.Equal(t, "Contoso.App", pkgs[0].Identifier)
	}
}

func TestResolveUnknownMatchType(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	_, err := Resolve(db, Request{Query: &RequestMatch{KeyWord: "Contoso", MatchType: "Fuzzy"}})
	assert.ErrorIs(t, err, ErrUnknownMatchType)
}

func TestResolveNoCriteria(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	// An empty request never dumps the whole catalog.
	pkgs, err := Resolve(db, Request{})
	require.NoError(t, err)
	assert.Empty(t, pkgs)

	pkgs, err = Resolve(db, Request{Query: &RequestMatch{KeyWord: "", MatchType: MatchExact}})
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestResolveInclusionsAndFiltersWiden(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	pkgs, err := Resolve(db, Request{
		Query: &RequestMatch{KeyWord: "Contoso.App", MatchType: MatchExact},
		Filters: []FieldFilter{{
			PackageMatchField: "PackageName",
			RequestMatch:      RequestMatch{KeyWord: "fabrikam", MatchType: MatchPartial},
		}},
	})
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "Contoso.App", pkgs[0].Identifier)
	assert.Equal(t, "Fabrikam.Tool", pkgs[1].Identifier)
}

func TestResolveUnsupportedFieldSkipped(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	pkgs, err := Resolve(db, Request{
		Inclusions: []FieldFilter{
			{PackageMatchField: "Tag", RequestMatch: RequestMatch{KeyWord: "x", MatchType: MatchExact}},
			{PackageMatchField: "PackageIdentifier", RequestMatch: RequestMatch{KeyWord: "Fabrikam.Tool", MatchType: MatchExact}},
		},
	})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Fabrikam.Tool", pkgs[0].Identifier)
}

func TestResolveExcludesInstallerlessPackages(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	pkgs, err := Resolve(db, Request{Query: &RequestMatch{KeyWord: "Contoso.Empty", MatchType: MatchExact}})
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestResolveMaximumResults(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	pkgs, err := Resolve(db, Request{
		MaximumResults: 1,
		Query:          &RequestMatch{KeyWord: "o", MatchType: MatchPartial},
	})
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

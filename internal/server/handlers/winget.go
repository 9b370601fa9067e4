package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"wingetdepot/internal/catalog"
	"wingetdepot/internal/config"
	"wingetdepot/internal/database"
	"wingetdepot/internal/manifest"
	"wingetdepot/internal/search"
)

// ServerSupportedVersions advertises which WinGet REST schema versions
// this source speaks.
var ServerSupportedVersions = []string{"1.4.0", "1.5.0"}

func WingetIndex(c *fiber.Ctx) error {
	return c.SendString("WinGet API is running, see documentation for more information")
}

func Information(c *fiber.Ctx) error {
	name := config.ResolveSetting(database.DB, "repo_name")
	if name == "" {
		name = "wingetdepot"
	}
	return c.JSON(fiber.Map{"Data": fiber.Map{
		"SourceIdentifier":        name,
		"ServerSupportedVersions": ServerSupportedVersions,
	}})
}

// PackageManifest serves the full manifest for one identifier. A
// missing package is an empty 204, the protocol's "no results".
func PackageManifest(c *fiber.Ctx) error {
	pkg, err := Cat.GetPackage(c.Params("identifier"))
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return fiber.ErrInternalServerError
	}
	return c.JSON(manifest.Project(pkg, config.Current.BaseURL))
}

// ManifestSearch runs the protocol search. Resolver errors and empty
// result sets both end as 204; the client treats that as "no results".
func ManifestSearch(c *fiber.Ctx) error {
	var req search.Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	log.Debug().
		Int("inclusions", len(req.Inclusions)).
		Int("filters", len(req.Filters)).
		Msg("manifestSearch request")

	pkgs, err := search.Resolve(Cat.DB(), req)
	if err != nil {
		if errors.Is(err, search.ErrUnknownMatchType) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return fiber.ErrInternalServerError
	}
	if len(pkgs) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	summaries := make([]manifest.Summary, 0, len(pkgs))
	for i := range pkgs {
		summaries = append(summaries, manifest.ProjectSummary(&pkgs[i]))
	}
	return c.JSON(fiber.Map{"Data": summaries})
}

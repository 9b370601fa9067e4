package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"wingetdepot/internal/catalog"
	"wingetdepot/internal/models"
	"wingetdepot/internal/storage"
)

func APIIndex(c *fiber.Ctx) error {
	return c.SendString("API is running, see documentation for more information")
}

func Packages(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	searchQuery := c.Query("search")

	pkgs, total, err := Cat.ListPackages(page, limit, searchQuery)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return c.JSON(fiber.Map{
		"packages":     pkgs,
		"total":        total,
		"pages":        pages,
		"current_page": page,
	})
}

func GetPackage(c *fiber.Ctx) error {
	pkg, err := Cat.GetPackage(c.Params("identifier"))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(pkg)
}

func PackageVersions(c *fiber.Ctx) error {
	pkg, err := Cat.GetPackage(c.Params("identifier"))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(pkg.Versions)
}

func GetPackageVersion(c *fiber.Ctx) error {
	_, ver, err := Cat.GetVersion(c.Params("identifier"), c.Params("version"))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(ver)
}

func PackageInstallers(c *fiber.Ctx) error {
	_, ver, err := Cat.GetVersion(c.Params("identifier"), c.Params("version"))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(ver.Installers)
}

func GetInstaller(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("installer"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	inst, err := Cat.GetInstaller(uint(id))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(inst)
}

// AddPackage registers a package, optionally with a first version and
// installer when the form carries a content source.
func AddPackage(c *fiber.Ctx) error {
	name := c.FormValue("name")
	publisher := c.FormValue("publisher")
	identifier := c.FormValue("identifier")
	if name == "" || publisher == "" || identifier == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, publisher and identifier are required")
	}

	req, err := parseInstallerRequest(c)
	if err != nil {
		return fiber.ErrBadRequest
	}
	if errs := req.Validate(false); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	var input *catalog.InstallerInput
	if req.HasSource() {
		input, err = installerInput(req)
		if err != nil {
			return fiber.ErrInternalServerError
		}
	}

	pkg, err := Cat.CreatePackage(c.Context(), name, publisher, identifier, req.Version, input)
	if err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Added package %s", pkg.Identifier))
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

func UpdatePackage(c *fiber.Ctx) error {
	name := c.FormValue("name")
	publisher := c.FormValue("publisher")
	if name == "" || publisher == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and publisher are required")
	}
	pkg, err := Cat.UpdatePackage(c.Params("identifier"), name, publisher)
	if err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Updated package %s", pkg.Identifier))
	return c.JSON(pkg)
}

func DeletePackage(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	if err := Cat.DeletePackage(c.Context(), identifier); err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Deleted package %s", identifier))
	return c.SendStatus(fiber.StatusNoContent)
}

func AddVersion(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	req, err := parseInstallerRequest(c)
	if err != nil {
		return fiber.ErrBadRequest
	}
	if req.Version == "" {
		return fiber.NewError(fiber.StatusBadRequest, "version is required")
	}
	if errs := req.Validate(false); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	var input *catalog.InstallerInput
	if req.HasSource() {
		input, err = installerInput(req)
		if err != nil {
			return fiber.ErrInternalServerError
		}
	}

	ver, err := Cat.AddVersion(c.Context(), identifier, req.Version, input)
	if err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Added version %s to package %s", ver.VersionCode, identifier))
	return c.Status(fiber.StatusCreated).JSON(ver)
}

func AddInstaller(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	req, err := parseInstallerRequest(c)
	if err != nil {
		return fiber.ErrBadRequest
	}
	if errs := req.Validate(true); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	input, err := installerInput(req)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	inst, err := Cat.AddInstaller(c.Context(), identifier, req.Version, *input)
	if err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Added installer to package %s %s", identifier, req.Version))
	return c.Status(fiber.StatusCreated).JSON(inst)
}

// EditInstaller reconciles the installer's switch set against the
// submitted form: present keys are upserted, absent ones deleted.
func EditInstaller(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.FormValue("installer_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "installer_id is required")
	}
	req, err := parseInstallerRequest(c)
	if err != nil {
		return fiber.ErrBadRequest
	}
	if err := Cat.ReconcileSwitches(c.Context(), uint(id), req.Switches); err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Updated installer %d of package %s", id, c.Params("identifier")))
	return c.SendStatus(fiber.StatusOK)
}

func DeleteVersion(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	version := c.Params("version")
	if err := Cat.DeleteVersion(c.Context(), identifier, version); err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Deleted version %s from package %s", version, identifier))
	return c.SendStatus(fiber.StatusOK)
}

func DeleteInstaller(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	version := c.Params("version")
	id, err := strconv.Atoi(c.Params("installer"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	if err := Cat.DeleteInstaller(c.Context(), identifier, version, uint(id)); err != nil {
		return catalogError(c, err)
	}
	recordAccess(c, fmt.Sprintf("Deleted installer %d from package %s", id, identifier))
	return c.SendStatus(fiber.StatusOK)
}

// installerInput converts a validated request into catalog input,
// opening the upload stream when one is present.
func installerInput(req *InstallerRequest) (*catalog.InstallerInput, error) {
	input := &catalog.InstallerInput{
		Architecture:        req.Architecture,
		InstallerType:       req.InstallerType,
		Scope:               req.Scope,
		ExternalURL:         req.URL,
		S3Staged:            req.S3Staged,
		NestedInstallerType: req.NestedInstallerType,
		NestedInstallerPath: req.NestedInstallerPath,
		Switches:            req.Switches,
	}
	if req.File != nil {
		f, err := req.File.Open()
		if err != nil {
			return nil, err
		}
		input.File = f
		input.UploadName = req.File.Filename
		// An upload takes precedence over any URL in the same request.
		input.ExternalURL = ""
		input.S3Staged = false
	}
	return input, nil
}

func recordAccess(c *fiber.Ctx, action string) {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return
	}
	Sink.Record(models.NewAccessLog(user.ID, c.IP(), c.Get("User-Agent"), action))
}

// catalogError maps catalog and storage failures onto the API error
// taxonomy. Write-path internals are logged, never leaked.
func catalogError(c *fiber.Ctx, err error) error {
	var storageErr *storage.StorageError
	switch {
	case errors.Is(err, catalog.ErrPackageNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Package not found")
	case errors.Is(err, catalog.ErrVersionNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Package version not found")
	case errors.Is(err, catalog.ErrInstallerNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Installer not found")
	case errors.Is(err, catalog.ErrDuplicateIdentifier):
		return c.Status(fiber.StatusConflict).SendString("Package identifier already in use")
	case errors.Is(err, catalog.ErrInvalidVersion):
		return c.Status(fiber.StatusBadRequest).SendString("Invalid version number, please use a valid semver version")
	case errors.Is(err, catalog.ErrMissingContentSource):
		return c.Status(fiber.StatusBadRequest).SendString("Either a file or an external URL must be provided")
	case errors.Is(err, catalog.ErrNestedPairRequired):
		return c.Status(fiber.StatusBadRequest).SendString("Nested installer type and path should be provided together")
	case errors.Is(err, storage.ErrInsecureURL), errors.Is(err, storage.ErrContentTooLarge):
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	case errors.As(err, &storageErr):
		log.Error().Err(err).Msg("content store failure")
		return fiber.ErrInternalServerError
	default:
		log.Error().Err(err).Msg("catalog operation failed")
		return fiber.ErrInternalServerError
	}
}

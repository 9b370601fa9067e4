package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/server/handlers"
	"wingetdepot/internal/server/middleware"
)

func RegisterRoutes(app *fiber.App) {
	// WinGet REST source protocol, consumed by the winget client.
	wg := app.Group("/wg")
	wg.Get("/", handlers.WingetIndex)
	wg.Get("/information", handlers.Information)
	wg.Get("/packageManifests/:identifier", handlers.PackageManifest)
	wg.Post("/manifestSearch", handlers.ManifestSearch)

	api := app.Group("/api")
	api.Get("/", handlers.APIIndex)

	// Downloads are public: the winget client fetches them unauthenticated.
	api.Get("/download/:identifier/:version/:architecture/:scope", handlers.Download)

	api.Post("/login", handlers.Login)
	api.Get("/whoami", middleware.AuthRequired(), handlers.Whoami)

	// Catalog reads
	api.Get("/packages", middleware.AuthRequired(), middleware.PermissionRequired("view:package"), handlers.Packages)
	api.Get("/package/:identifier", middleware.AuthRequired(), middleware.PermissionRequired("view:package"), handlers.GetPackage)
	api.Get("/package/:identifier/versions", middleware.AuthRequired(), middleware.PermissionRequired("view:version"), handlers.PackageVersions)
	api.Get("/package/:identifier/version/:version", middleware.AuthRequired(), middleware.PermissionRequired("view:version"), handlers.GetPackageVersion)
	api.Get("/package/:identifier/version/:version/installers", middleware.AuthRequired(), middleware.PermissionRequired("view:installer"), handlers.PackageInstallers)
	api.Get("/installer/:installer", middleware.AuthRequired(), middleware.PermissionRequired("view:installer"), handlers.GetInstaller)

	// Catalog writes
	api.Post("/add_package", middleware.AuthRequired(), middleware.PermissionRequired("add:package"), handlers.AddPackage)
	api.Post("/package/:identifier", middleware.AuthRequired(), middleware.PermissionRequired("edit:package"), handlers.UpdatePackage)
	api.Delete("/package/:identifier", middleware.AuthRequired(), middleware.PermissionRequired("delete:package"), handlers.DeletePackage)
	api.Post("/package/:identifier/add_version", middleware.AuthRequired(), middleware.PermissionRequired("add:version"), handlers.AddVersion)
	api.Post("/package/:identifier/add_installer", middleware.AuthRequired(), middleware.PermissionRequired("add:installer"), handlers.AddInstaller)
	api.Post("/package/:identifier/edit_installer", middleware.AuthRequired(), middleware.PermissionRequired("edit:installer"), handlers.EditInstaller)
	api.Delete("/package/:identifier/:version", middleware.AuthRequired(), middleware.PermissionRequired("delete:version"), handlers.DeleteVersion)
	api.Delete("/package/:identifier/:version/:installer", middleware.AuthRequired(), middleware.PermissionRequired("delete:installer"), handlers.DeleteInstaller)

	// Staged S3 uploads
	api.Post("/generate_presigned_url", middleware.AuthRequired(), middleware.PermissionRequired("add:installer"), handlers.GeneratePresignedURL)

	// Settings and audit
	api.Get("/settings", middleware.AuthRequired(), middleware.PermissionRequired("view:settings"), handlers.Settings)
	api.Post("/update_setting", middleware.AuthRequired(), middleware.PermissionRequired("edit:settings"), handlers.UpdateSetting)
	api.Get("/downloadLog", middleware.AuthRequired(), middleware.PermissionRequired("view:logs"), handlers.DownloadLogs)
	api.Get("/accessLog", middleware.AuthRequired(), middleware.PermissionRequired("view:logs"), handlers.AccessLogs)

	// Health
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "time": time.Now()})
	})
}

package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/models"
)

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InstallerRequest carries the fields of an add-installer request.
// Conditional requiredness is explicit: the installer detail fields are
// required only when a content source is present, and the nested fields
// only for zip installers.
type InstallerRequest struct {
	Version             string `form:"version"`
	Architecture        string `form:"architecture"`
	InstallerType       string `form:"installer_type"`
	Scope               string `form:"installer_scope"`
	URL                 string `form:"url"`
	S3Staged            bool   `form:"is_staged"`
	NestedInstallerType string `form:"nestedinstallertype"`
	NestedInstallerPath string `form:"nestedinstallerpath"`

	File *multipart.FileHeader `form:"-"`

	Switches map[string]string `form:"-"`
}

// HasSource reports whether the request carries any content source.
func (r *InstallerRequest) HasSource() bool {
	return r.File != nil || r.URL != ""
}

// Validate evaluates every cross-field rule in one pass and returns the
// full list of violations.
func (r *InstallerRequest) Validate(requireSource bool) []FieldError {
	var errs []FieldError

	if requireSource && !r.HasSource() {
		errs = append(errs, FieldError{Field: "file", Message: "either a file or an external URL must be provided"})
	}

	if r.HasSource() {
		if r.Version == "" {
			errs = append(errs, FieldError{Field: "version", Message: "required when a content source is provided"})
		}
		if !models.ValidArchitecture(r.Architecture) {
			errs = append(errs, FieldError{Field: "architecture", Message: "must be one of x86, x64, arm, arm64"})
		}
		if !models.ValidInstallerType(r.InstallerType) {
			errs = append(errs, FieldError{Field: "installer_type", Message: "unsupported installer type"})
		}
		if !models.ValidScope(r.Scope) {
			errs = append(errs, FieldError{Field: "installer_scope", Message: "must be one of user, machine, both"})
		}
	}

	switch {
	case r.InstallerType == "zip":
		if r.NestedInstallerType == "" {
			errs = append(errs, FieldError{Field: "nestedinstallertype", Message: "required for zip installers"})
		} else if !models.ValidNestedInstallerType(r.NestedInstallerType) {
			errs = append(errs, FieldError{Field: "nestedinstallertype", Message: "unsupported nested installer type"})
		}
		if r.NestedInstallerPath == "" {
			errs = append(errs, FieldError{Field: "nestedinstallerpath", Message: "required for zip installers"})
		}
	case r.NestedInstallerType != "" || r.NestedInstallerPath != "":
		errs = append(errs, FieldError{Field: "nestedinstallertype", Message: "nested installer fields are only valid for zip installers"})
	}

	return errs
}

// parseInstallerRequest reads the installer fields, the optional upload
// and the allow-listed switches out of a multipart form.
func parseInstallerRequest(c *fiber.Ctx) (*InstallerRequest, error) {
	var req InstallerRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return nil, err
	}
	if f, err := c.FormFile("file"); err == nil && f != nil {
		req.File = f
	}
	req.Switches = map[string]string{}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, key := range models.InstallerSwitchKeys {
			if vals, ok := form.Value[key]; ok && len(vals) > 0 {
				req.Switches[key] = vals[0]
			}
		}
	} else {
		for _, key := range models.InstallerSwitchKeys {
			if v := c.FormValue(key); v != "" {
				req.Switches[key] = v
			}
		}
	}
	return &req, nil
}

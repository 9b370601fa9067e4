package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"wingetdepot/internal/catalog"
	"wingetdepot/internal/models"
	"wingetdepot/internal/storage"
)

// Download resolves (identifier, version, architecture, scope) to a
// concrete installer and picks the transport: presigned object-store
// URL, external redirect, or a local stream honoring Range requests.
func Download(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	versionCode := c.Params("version")
	architecture := c.Params("architecture")
	scope := c.Params("scope")

	pkg, ver, inst, err := Cat.ResolveInstaller(identifier, versionCode, architecture, scope)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrPackageNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Package not found")
		case errors.Is(err, catalog.ErrVersionNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Package version not found")
		case errors.Is(err, catalog.ErrInstallerNotFound):
			return c.Status(fiber.StatusNotFound).SendString("Installer not found")
		}
		return fiber.ErrInternalServerError
	}

	// Fire-and-forget: a failed log write never affects the response.
	Sink.Record(models.NewDownloadLog(inst.ID, c.IP(), c.Get("User-Agent")))

	// Object-store-backed content redirects to a presigned URL. The
	// client fetches the whole resource in one shot, so it always counts.
	if inst.Stored() && Cat.Store().Kind() == storage.KindS3 {
		key := catalog.ContentKey(pkg, ver.VersionCode, inst)
		presigned, err := Cat.Store().PresignGet(c.Context(), key, *inst.FileName)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("presign failed")
			return fiber.ErrInternalServerError
		}
		countDownload(pkg.ID)
		return c.Redirect(presigned, fiber.StatusFound)
	}

	if inst.ExternalURL != nil {
		countDownload(pkg.ID)
		return c.Redirect(*inst.ExternalURL, fiber.StatusFound)
	}

	if !inst.Stored() {
		return c.Status(fiber.StatusNotFound).SendString("Installer not found")
	}

	key := catalog.ContentKey(pkg, ver.VersionCode, inst)
	f, err := Cat.Store().Open(c.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Installer not found")
		}
		log.Error().Err(err).Str("key", key).Msg("open installer content failed")
		return fiber.ErrInternalServerError
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return fiber.ErrInternalServerError
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+*inst.FileName)
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	c.Set(fiber.HeaderAcceptRanges, "bytes")

	rangeHeader := c.Get(fiber.HeaderRange)
	if rangeHeader == "" {
		countDownload(pkg.ID)
		return c.SendStream(f, int(size))
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		_ = f.Close()
		return c.Status(fiber.StatusBadRequest).SendString("Invalid range header")
	}

	// WinGet probes partial-download support with a two-byte request
	// before fetching the rest in chunks. Counting only that probe keeps
	// resumed and segmented downloads from inflating the counter. This
	// literal check mirrors observed client behavior, nothing deeper.
	if rangeHeader == "bytes=0-1" {
		countDownload(pkg.ID)
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		_ = f.Close()
		return fiber.ErrInternalServerError
	}
	length := end - start + 1
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Status(fiber.StatusPartialContent)
	return c.SendStream(&partialReader{r: io.LimitReader(f, length), c: f}, int(length))
}

func countDownload(packageID uint) {
	if err := Cat.IncrementDownloadCount(packageID); err != nil {
		log.Error().Err(err).Uint("package_id", packageID).Msg("download count update failed")
	}
}

// parseRange parses a single-range "bytes=" header against the given
// content size. Multi-range requests are rejected as malformed.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, errMalformedRange
	}
	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, errMalformedRange
	}

	if first == "" {
		// Suffix form: last n bytes.
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, errMalformedRange
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err = strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, errMalformedRange
	}
	if last == "" {
		return start, size - 1, nil
	}
	end, err = strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return 0, 0, errMalformedRange
	}
	if end >= size {
		end = size - 1
	}
	return start, end, nil
}

var errMalformedRange = errors.New("malformed range header")

// partialReader streams a byte range while keeping the underlying file
// closable by fasthttp when the response body is done.
type partialReader struct {
	r io.Reader
	c io.Closer
}

func (p *partialReader) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *partialReader) Close() error               { return p.c.Close() }

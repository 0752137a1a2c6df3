package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/reqctx"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	maxWarmURLs    = 50
	cleanupTimeout = 15 * time.Second
)

var imageFolders = map[string]bool{
	"posts":    true,
	"profiles": true,
	"chat":     true,
}

type Handler struct {
	images    *Storage
	videos    *Stream
	imagekit  *ImageKit
	warmer    *Warmer
	warmHosts map[string]bool
}

func NewHandler(images *Storage, videos *Stream, imagekit *ImageKit, warmer *Warmer) *Handler {
	return &Handler{
		images:    images,
		videos:    videos,
		imagekit:  imagekit,
		warmer:    warmer,
		warmHosts: cdnHosts(images, videos, imagekit),
	}
}

// cdnHosts lists the hosts our own media is served from.
func cdnHosts(images *Storage, videos *Stream, imagekit *ImageKit) map[string]bool {
	hosts := map[string]bool{}
	if images != nil && images.cdnHost != "" {
		hosts[strings.ToLower(images.cdnHost)] = true
	}
	if videos != nil && videos.cdnHost != "" {
		hosts[strings.ToLower(videos.cdnHost)] = true
	}
	if imagekit != nil && imagekit.urlEndpoint != "" {
		if u, err := url.Parse(imagekit.urlEndpoint); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = true
		}
	}
	return hosts
}

// UploadImages handles POST /media/images with one or more "images" parts.
func (h *Handler) UploadImages(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if !h.images.Enabled() {
		return mediaError(c, ErrNotConfigured)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Multipart form is required")
	}
	files := append(form.File["images"], form.File["image"]...)
	switch {
	case len(files) == 0:
		return features.Fail(c, fiber.StatusBadRequest, "At least one image is required")
	case len(files) > MaxImageFiles:
		return features.Fail(c, fiber.StatusBadRequest, "Too many images")
	}

	folder := c.FormValue("folder", "posts")
	if !imageFolders[folder] {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid folder")
	}
	dir := folder + "/" + userID.String()

	for _, f := range files {
		if f.Size > MaxImageSize {
			return mediaError(c, ErrImageTooLarge)
		}
	}

	// A failed upload does not cancel the others, so discard sees every
	// stored image.
	ctx := c.UserContext()
	images := make([]*Image, len(files))
	var g errgroup.Group
	g.SetLimit(4)
	for i, f := range files {
		g.Go(func() error {
			data, err := readPart(f)
			if err != nil {
				return err
			}
			img, err := h.images.UploadImage(ctx, dir, f.Header.Get("Content-Type"), data)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.discard(ctx, images)
		return mediaError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": images})
}

// discard removes the uploaded half of a failed batch.
func (h *Handler) discard(ctx context.Context, images []*Image) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	for _, img := range images {
		if img == nil {
			continue
		}
		if err := h.images.DeleteImage(ctx, img.Path); err != nil {
			slog.Warn("failed to remove orphaned upload", "path", img.Path, "error", err)
		}
	}
}

// DeleteImage handles DELETE /media/images with {"path": "..."}. The path
// may be a zone path or CDN URL and must sit in one of the caller's folders.
func (h *Handler) DeleteImage(c *fiber.Ctx) error {
	userID, err := reqctx.GetUserID(c)
	if err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if !h.images.Enabled() {
		return mediaError(c, ErrNotConfigured)
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	path, err := h.images.ZonePath(req.Path)
	if err != nil {
		return mediaError(c, err)
	}
	if !ownsPath(path, userID.String()) {
		return features.Fail(c, fiber.StatusForbidden, "You can only delete your own images")
	}

	if err := h.images.DeleteImage(c.UserContext(), path); err != nil {
		return mediaError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

func ownsPath(path, userID string) bool {
	folder, rest, ok := strings.Cut(path, "/")
	if !ok || !imageFolders[folder] {
		return false
	}
	owner, file, ok := strings.Cut(rest, "/")
	return ok && owner == userID && file != ""
}

// UploadVideo handles POST /media/videos with a single "video" part.
func (h *Handler) UploadVideo(c *fiber.Ctx) error {
	if _, err := reqctx.GetUserID(c); err != nil {
		return features.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if !h.videos.Enabled() {
		return mediaError(c, ErrNotConfigured)
	}

	file, err := c.FormFile("video")
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Video file is required")
	}
	if !IsVideoType(file.Header.Get("Content-Type")) {
		return mediaError(c, ErrUnsupportedVideo)
	}

	src, err := file.Open()
	if err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Failed to read video")
	}
	defer src.Close()

	title := c.FormValue("title", file.Filename)
	video, err := h.videos.UploadVideo(c.UserContext(), title, src, file.Size)
	if err != nil {
		return mediaError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"video": video})
}

func (h *Handler) ImageKitAuth(c *fiber.Ctx) error {
	if !h.imagekit.Enabled() {
		return mediaError(c, ErrNotConfigured)
	}
	return c.JSON(h.imagekit.AuthParams())
}

func (h *Handler) ImageKitDelete(c *fiber.Ctx) error {
	if err := h.imagekit.DeleteFile(c.UserContext(), c.Params("file_id")); err != nil {
		return mediaError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

func (h *Handler) ImageKitFiles(c *fiber.Ctx) error {
	files, err := h.imagekit.ListFolder(c.UserContext(), c.Query("path", "/"))
	if err != nil {
		return mediaError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"files": files}})
}

// Warm handles POST /media/warm with {"urls": [...]}.
func (h *Handler) Warm(c *fiber.Ctx) error {
	var req struct {
		URLs []string `json:"urls"`
	}
	if err := c.BodyParser(&req); err != nil {
		return features.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.URLs) == 0 || len(req.URLs) > maxWarmURLs {
		return features.Fail(c, fiber.StatusBadRequest, "Between 1 and 50 URLs are required")
	}
	for _, raw := range req.URLs {
		if !h.warmable(raw) {
			return features.Fail(c, fiber.StatusBadRequest, "Only https URLs on our CDN can be warmed")
		}
	}
	return c.JSON(fiber.Map{"results": h.warmer.Warm(c.UserContext(), req.URLs)})
}

func (h *Handler) warmable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.User != nil {
		return false
	}
	return h.warmHosts[strings.ToLower(u.Host)]
}

func readPart(f *multipart.FileHeader) ([]byte, error) {
	src, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

func mediaError(c *fiber.Ctx, err error) error {
	var perr *ProviderError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return features.Fail(c, fiber.StatusServiceUnavailable, "Media storage is not configured")
	case errors.Is(err, ErrUnsupportedImage):
		return features.Fail(c, fiber.StatusBadRequest, "Only JPEG, PNG, WebP, GIF and HEIC images are allowed")
	case errors.Is(err, ErrImageTooLarge):
		return features.Fail(c, fiber.StatusBadRequest, "Image size must be 10MB or less")
	case errors.Is(err, ErrUnsupportedVideo):
		return features.Fail(c, fiber.StatusBadRequest, "Only MP4, MOV and WebM videos are allowed")
	case errors.Is(err, ErrInvalidPath):
		return features.Fail(c, fiber.StatusBadRequest, "Invalid image path")
	case errors.Is(err, ErrNotFound):
		return features.Fail(c, fiber.StatusNotFound, "File not found")
	case errors.As(err, &perr):
		slog.Error("media provider error", "provider", perr.Provider, "status", perr.Status, "body", perr.Body)
		return features.Fail(c, fiber.StatusBadGateway, "Media provider error")
	}
	slog.Error("media request failed", "path", c.Path(), "error", err)
	return features.Fail(c, fiber.StatusInternalServerError, "Internal server error")
}

// Package media talks to the image and video CDNs posts are built from:
// ImageKit for client-side uploads, Bunny Storage for images and Bunny
// Stream for video.
package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrNotConfigured    = errors.New("media provider is not configured")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image exceeds the size limit")
	ErrUnsupportedVideo = errors.New("unsupported video type")
	ErrNotFound         = errors.New("media file not found")
	ErrInvalidPath      = errors.New("invalid media path")
)

// ProviderError is a non-2xx answer from a CDN API.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

func checkResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ProviderError{Provider: provider, Status: resp.StatusCode, Body: string(body)}
}

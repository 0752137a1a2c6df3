package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxImageSize   = 10 << 20
	MaxImageFiles  = 10
	bunnyStreamAPI = "https://video.bunnycdn.com"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/heic": "heic",
	"image/heif": "heic",
}

var videoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
	"video/x-m4v":     true,
	"video/3gpp":      true,
	"application/mp4": true,
}

// Storage is a Bunny Storage zone fronted by a pull zone.
type Storage struct {
	endpoint   string
	zone       string
	accessKey  string
	cdnHost    string
	httpClient *http.Client
}

func NewStorage(endpoint, zone, accessKey, cdnHost string) *Storage {
	return &Storage{
		endpoint:   strings.TrimRight(endpoint, "/"),
		zone:       zone,
		accessKey:  accessKey,
		cdnHost:    cdnHost,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Storage) Enabled() bool {
	return s != nil && s.zone != "" && s.accessKey != "" && s.cdnHost != ""
}

type Image struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// ImageType resolves the content type of an upload. The declared type wins
// unless it is missing or generic, in which case the bytes are sniffed.
func ImageType(declared string, data []byte) (contentType, ext string, err error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	return contentType, ext, nil
}

// UploadImage stores data under dir with a fresh name and returns its CDN
// URL.
func (s *Storage) UploadImage(ctx context.Context, dir, declaredType string, data []byte) (*Image, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	contentType, ext, err := ImageType(declaredType, data)
	if err != nil {
		return nil, err
	}

	path := strings.Trim(dir, "/") + "/" + uuid.NewString() + "." + ext
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint+"/"+s.zone+"/"+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("AccessKey", s.accessKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bunny storage upload: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("bunny storage", resp); err != nil {
		return nil, err
	}

	return &Image{
		Path:        path,
		URL:         "https://" + s.cdnHost + "/" + path,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

// DeleteImage removes a file by its zone path or full CDN URL.
func (s *Storage) DeleteImage(ctx context.Context, path string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	path, err := s.ZonePath(path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.endpoint+"/"+s.zone+"/"+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("AccessKey", s.accessKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bunny storage delete: %w", err)
	}
	defer resp.Body.Close()
	return checkResponse("bunny storage", resp)
}

// ZonePath turns a zone path or CDN URL into a path below the zone root.
func (s *Storage) ZonePath(ref string) (string, error) {
	path := strings.TrimPrefix(ref, "https://"+s.cdnHost+"/")
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return "", ErrInvalidPath
	}
	path = strings.Trim(path, "/")
	if path == "" || !strings.Contains(path, "/") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return path, nil
}

// Stream is a Bunny Stream video library.
type Stream struct {
	apiBase    string
	libraryID  string
	apiKey     string
	cdnHost    string
	httpClient *http.Client
}

func NewStream(libraryID, apiKey, cdnHost string) *Stream {
	return &Stream{
		apiBase:    bunnyStreamAPI,
		libraryID:  libraryID,
		apiKey:     apiKey,
		cdnHost:    cdnHost,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (s *Stream) Enabled() bool {
	return s != nil && s.libraryID != "" && s.apiKey != "" && s.cdnHost != ""
}

type Video struct {
	GUID         string `json:"guid"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Status       string `json:"status"`
}

func IsVideoType(contentType string) bool {
	return videoTypes[strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))]
}

// UploadVideo creates a library entry and then sends the bytes. The video
// is still encoding when this returns; the stream webhook reports when it
// is playable.
func (s *Stream) UploadVideo(ctx context.Context, title string, body io.Reader, size int64) (*Video, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	guid, err := s.createVideo(ctx, title)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.videoURL(guid), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("AccessKey", s.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = size

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bunny stream upload: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("bunny stream", resp); err != nil {
		return nil, err
	}

	return &Video{
		GUID:         guid,
		URL:          "https://" + s.cdnHost + "/" + guid + "/playlist.m3u8",
		ThumbnailURL: "https://" + s.cdnHost + "/" + guid + "/thumbnail.jpg",
		Status:       "processing",
	}, nil
}

func (s *Stream) createVideo(ctx context.Context, title string) (string, error) {
	payload, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.apiBase+"/library/"+s.libraryID+"/videos", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("AccessKey", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("bunny stream create: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("bunny stream", resp); err != nil {
		return "", err
	}

	var created struct {
		GUID string `json:"guid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("bunny stream create: %w", err)
	}
	if created.GUID == "" {
		return "", fmt.Errorf("bunny stream create: empty guid")
	}
	return created.GUID, nil
}

func (s *Stream) videoURL(guid string) string {
	return s.apiBase + "/library/" + s.libraryID + "/videos/" + guid
}

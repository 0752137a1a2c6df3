package media

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	imageKitAPI        = "https://api.imagekit.io/v1"
	imageKitAuthExpiry = 30 * time.Minute
)

type ImageKit struct {
	publicKey   string
	privateKey  string
	urlEndpoint string
	apiBase     string
	httpClient  *http.Client
	now         func() time.Time
}

func NewImageKit(publicKey, privateKey, urlEndpoint string) *ImageKit {
	return &ImageKit{
		publicKey:   publicKey,
		privateKey:  privateKey,
		urlEndpoint: urlEndpoint,
		apiBase:     imageKitAPI,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		now:         time.Now,
	}
}

func (k *ImageKit) Enabled() bool {
	return k != nil && k.publicKey != "" && k.privateKey != ""
}

// AuthParams lets a client upload straight to ImageKit.
type AuthParams struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"public_key"`
	URLEndpoint string `json:"url_endpoint"`
}

// AuthParams signs a one-off upload token. The signature is
// hex(HMAC-SHA1(private key, token+expire)).
func (k *ImageKit) AuthParams() AuthParams {
	token := uuid.NewString()
	expire := k.now().Add(imageKitAuthExpiry).Unix()
	return AuthParams{
		Token:       token,
		Expire:      expire,
		Signature:   k.sign(token, expire),
		PublicKey:   k.publicKey,
		URLEndpoint: k.urlEndpoint,
	}
}

func (k *ImageKit) sign(token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(k.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

type ImageKitFile struct {
	FileID       string    `json:"fileId"`
	Name         string    `json:"name"`
	FilePath     string    `json:"filePath"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail"`
	FileType     string    `json:"fileType"`
	Size         int64     `json:"size"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (k *ImageKit) DeleteFile(ctx context.Context, fileID string) error {
	if !k.Enabled() {
		return ErrNotConfigured
	}
	req, err := k.newRequest(ctx, http.MethodDelete, "/files/"+url.PathEscape(fileID))
	if err != nil {
		return err
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("imagekit delete: %w", err)
	}
	defer resp.Body.Close()
	return checkResponse("imagekit", resp)
}

// ListFolder lists the files directly under path.
func (k *ImageKit) ListFolder(ctx context.Context, path string) ([]ImageKitFile, error) {
	if !k.Enabled() {
		return nil, ErrNotConfigured
	}
	if path == "" {
		path = "/"
	}
	q := url.Values{"path": {path}, "type": {"file"}}
	req, err := k.newRequest(ctx, http.MethodGet, "/files?"+q.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagekit list: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("imagekit", resp); err != nil {
		return nil, err
	}

	files := []ImageKitFile{}
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("imagekit list: %w", err)
	}
	return files, nil
}

func (k *ImageKit) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, k.apiBase+path, nil)
	if err != nil {
		return nil, err
	}
	// ImageKit uses the private key as the basic-auth user with no password.
	req.SetBasicAuth(k.privateKey, "")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

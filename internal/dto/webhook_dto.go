package dto

// BunnyVideoWebhook is the payload Bunny Stream posts on encoding progress.
type BunnyVideoWebhook struct {
	VideoLibraryID int    `json:"VideoLibraryId"`
	VideoGUID      string `json:"VideoGuid"`
	Status         int    `json:"Status"`
}

// Bunny Stream webhook status codes.
const (
	BunnyStatusQueued          = 0
	BunnyStatusProcessing      = 1
	BunnyStatusEncoding        = 2
	BunnyStatusFinished        = 3
	BunnyStatusResolutionReady = 4
	BunnyStatusFailed          = 5
)

package dto

import "time"

// FolderAccessResponse carries a signed, expiring token granting access to
// an event's submission folder.
type FolderAccessResponse struct {
	EventID   string    `json:"eventId"`
	FolderURL string    `json:"folderUrl"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

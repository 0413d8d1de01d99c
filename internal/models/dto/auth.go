package dto

import "github.com/hongminglow/gbans-web/internal/models"

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse is what /api/session reports about the current viewer.
type SessionResponse struct {
	User          models.UserProfile `json:"user"`
	Authenticated bool               `json:"authenticated"`
	Permission    string             `json:"permission"`
}

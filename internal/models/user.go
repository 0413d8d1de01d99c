package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SteamID is a 64-bit Steam account identifier. Zero denotes a guest.
type SteamID uint64

const (
	steamUniversePublic    = 1
	steamAccountIndividual = 1
)

// Valid reports whether the id belongs to an individual account in the
// public universe with a non-zero account number.
func (s SteamID) Valid() bool {
	if s == 0 {
		return false
	}
	universe := uint64(s) >> 56
	accountType := (uint64(s) >> 52) & 0xF
	accountID := uint64(s) & 0xFFFFFFFF
	return universe == steamUniversePublic && accountType == steamAccountIndividual && accountID != 0
}

func (s SteamID) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// MarshalJSON encodes the id as a string so javascript consumers keep precision.
func (s SteamID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either a quoted or a bare number.
func (s *SteamID) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(raw) == 0 || string(raw) == "null" {
		*s = 0
		return nil
	}
	value, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid steam id %q: %w", raw, err)
	}
	*s = SteamID(value)
	return nil
}

// UserProfile is the viewer identity the access-control layer works with.
type UserProfile struct {
	SteamID         SteamID         `json:"steam_id"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	BanID           int64           `json:"ban_id"`
	Name            string          `json:"name"`
	Avatar          string          `json:"avatar"`
	AvatarFull      string          `json:"avatarfull"`
}

// Guest is the unauthenticated viewer.
var Guest = UserProfile{
	SteamID:         0,
	PermissionLevel: PermissionGuest,
	Name:            "Guest",
}

// IsGuest reports whether the profile does not carry a valid identity.
func (u UserProfile) IsGuest() bool {
	return !u.SteamID.Valid()
}

// Banned reports whether the profile references an active ban.
func (u UserProfile) Banned() bool {
	return u.BanID != 0
}

// TokenPair holds the bearer credentials issued by the backend.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty reports whether neither credential is present.
func (t TokenPair) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

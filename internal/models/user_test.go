package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteamIDValid(t *testing.T) {
	cases := []struct {
		name string
		id   SteamID
		want bool
	}{
		{"guest", 0, false},
		{"individual", 76561198031215761, true},
		{"base without account", 76561197960265728, false},
		{"account id only", 70950033, false},
		{"clan account type", 103582791429521412, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.id.Valid())
		})
	}
}

func TestSteamIDJSON(t *testing.T) {
	var out struct {
		A SteamID `json:"a"`
		B SteamID `json:"b"`
		C SteamID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"76561198031215761","b":76561198031215761,"c":null}`), &out))
	assert.Equal(t, SteamID(76561198031215761), out.A)
	assert.Equal(t, SteamID(76561198031215761), out.B)
	assert.Equal(t, SteamID(0), out.C)

	encoded, err := json.Marshal(out.A)
	require.NoError(t, err)
	assert.Equal(t, `"76561198031215761"`, string(encoded))

	var bad SteamID
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestPermissionOrder(t *testing.T) {
	for i := 1; i < len(PermissionLevels); i++ {
		assert.True(t, PermissionLevels[i].AtLeast(PermissionLevels[i-1]))
		assert.False(t, PermissionLevels[i-1].AtLeast(PermissionLevels[i]))
	}
}

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "moderator", PermissionModerator.String())
	assert.Equal(t, "level_15", PermissionLevel(15).String())
}

func TestGuestSentinel(t *testing.T) {
	assert.True(t, Guest.IsGuest())
	assert.False(t, Guest.Banned())
	assert.Equal(t, PermissionGuest, Guest.PermissionLevel)

	user := UserProfile{SteamID: 76561198031215761, PermissionLevel: PermissionUser, BanID: 7}
	assert.False(t, user.IsGuest())
	assert.True(t, user.Banned())
}

package models

import "strings"

// AvatarKind tags how an avatar reference is stored.
type AvatarKind string

const (
	AvatarURL    AvatarKind = "url"
	AvatarPreset AvatarKind = "preset"
)

// PresetAvatars are the bundled avatar keys, in fallback order.
var PresetAvatars = []string{"Avatar1", "Avatar2", "Avatar3", "Avatar4", "Avatar5"}

// Avatar is a parsed avatar reference: a remote URL or a preset key.
type Avatar struct {
	Kind  AvatarKind `json:"kind"`
	Value string     `json:"value"`
}

// ParseAvatar classifies a stored avatar string. It returns false for an
// empty reference.
func ParseAvatar(s string) (Avatar, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Avatar{}, false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return Avatar{Kind: AvatarURL, Value: s}, true
	}
	return Avatar{Kind: AvatarPreset, Value: s}, true
}

// IsPreset reports whether key names one of the bundled avatars.
func IsPreset(key string) bool {
	for _, p := range PresetAvatars {
		if p == key {
			return true
		}
	}
	return false
}

// FallbackAvatar picks a preset deterministically from a list position.
func FallbackAvatar(index int) Avatar {
	if index < 0 {
		index = -index
	}
	return Avatar{Kind: AvatarPreset, Value: PresetAvatars[index%len(PresetAvatars)]}
}

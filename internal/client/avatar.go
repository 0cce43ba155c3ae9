package client

import "github.com/ukydev/anchor/internal/models"

// PresetAssetPath is where bundled avatar images are served from.
const PresetAssetPath = "/assets/avatars/"

// ResolveAvatar picks the avatar drawn for the user at position index in a
// result list. URLs, including the default ui-avatars one, are used as they
// are. Empty references and unknown preset keys fall back to a preset chosen
// from the index.
func ResolveAvatar(raw string, index int) models.Avatar {
	a, ok := models.ParseAvatar(raw)
	if !ok {
		return models.FallbackAvatar(index)
	}
	if a.Kind == models.AvatarPreset && !models.IsPreset(a.Value) {
		return models.FallbackAvatar(index)
	}
	return a
}

// AvatarSource returns the image source for an avatar.
func AvatarSource(a models.Avatar) string {
	if a.Kind == models.AvatarURL {
		return a.Value
	}
	return PresetAssetPath + a.Value + ".png"
}

package player

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ResolveVideo turns a lesson's provider reference into something mpv can open.
// mpv hands vimeo and youtube page URLs to its ytdl hook.
func ResolveVideo(provider, videoID, embedURL string) (string, error) {
	id := strings.TrimSpace(videoID)

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "vimeo":
		if id == "" {
			break
		}
		return "https://player.vimeo.com/video/" + url.PathEscape(id), nil
	case "youtube":
		if id == "" {
			break
		}
		return "https://www.youtube.com/watch?v=" + url.QueryEscape(id), nil
	case "", "url", "direct":
		if strings.Contains(id, "://") {
			return id, nil
		}
	default:
		if embedURL == "" {
			return "", fmt.Errorf("unsupported video provider %q", provider)
		}
	}

	if embedURL != "" {
		return embedURL, nil
	}
	return "", errors.New("lesson has no video reference")
}

package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID pulls a video id out of a raw id, a watch URL, a youtu.be
// short link or a shorts URL. Returns "" when the input is none of those.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if videoIDRe.MatchString(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if videoIDRe.MatchString(id) {
			return id
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if id := u.Query().Get("v"); videoIDRe.MatchString(id) {
				return id
			}
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				id := strings.Trim(rest, "/")
				if videoIDRe.MatchString(id) {
					return id
				}
			}
		}
	}
	return ""
}

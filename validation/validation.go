package validation

import (
	"net/url"
	"os"
	"strings"

	apperrors "github.com/shivendrra/synapse/errors"
)

// IsRemote reports whether src should be fetched rather than read from disk.
func IsRemote(src string) bool {
	return strings.Contains(src, "://")
}

func ValidateURL(rawURL string) error {
	const op = "validation.ValidateURL"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return apperrors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return apperrors.InvalidInput(op, err, "invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.InvalidInput(op, nil, "URL must start with http or https")
	}

	if parsedURL.Host == "" {
		return apperrors.InvalidInput(op, nil, "URL must have a host")
	}

	if IsYouTubeHost(parsedURL.Hostname()) && parsedURL.Path == "/watch" {
		if parsedURL.Query().Get("v") == "" {
			return apperrors.InvalidInput(op, nil, "YouTube URL must contain a valid video ID")
		}
	}

	return nil
}

// ValidateSource accepts an http(s) URL or the path of an existing regular file.
func ValidateSource(src string) error {
	const op = "validation.ValidateSource"

	src = strings.TrimSpace(src)
	if src == "" {
		return apperrors.InvalidInput(op, nil, "source is required")
	}
	if IsRemote(src) {
		return ValidateURL(src)
	}

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.InvalidInput(op, err, "source file does not exist")
		}
		return apperrors.InvalidInput(op, err, "failed to stat source file")
	}
	if !info.Mode().IsRegular() {
		return apperrors.InvalidInput(op, nil, "source is not a regular file")
	}
	return nil
}

func IsYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtu.be"
}

// VideoID extracts the video id from watch, shorts, embed and youtu.be links.
func VideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !IsYouTubeHost(u.Hostname()) {
		return ""
	}
	if strings.EqualFold(u.Hostname(), "youtu.be") {
		return strings.Trim(u.Path, "/")
	}
	if u.Path == "/watch" {
		return u.Query().Get("v")
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if strings.HasPrefix(u.Path, prefix) {
			return strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
		}
	}
	return ""
}

package search

import (
	"fmt"

	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/logger"
	"github.com/shivendrra/synapse/models"
)

// Extractor turns raw provider items into three parallel, equal-length
// slices of titles, watch URLs and thumbnails.
type Extractor struct {
	WatchHost string
	Log       logrus.FieldLogger
}

func NewExtractor(watchHost string, log logrus.FieldLogger) *Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &Extractor{WatchHost: watchHost, Log: log}
}

func WatchURL(host, id string) string {
	return fmt.Sprintf("https://%s/watch?v=%s", host, id)
}

// Extract skips non-video items and items missing a required field, logging
// one diagnostic for each.
func (x *Extractor) Extract(items []models.Item) (titles, urls, thumbnails []string) {
	for i, it := range items {
		if !it.IsVideo() {
			x.Log.WithFields(logrus.Fields{
				"index": i,
				"kind":  it.Kind,
			}).Warn("there is some error in getting the output")
			continue
		}

		if err := checkItem(it); err != nil {
			x.Log.WithError(err).WithField("index", i).Warn("Skipping malformed search result")
			continue
		}

		urls = append(urls, WatchURL(x.WatchHost, it.ID))
		titles = append(titles, it.Title)
		thumbnails = append(thumbnails, it.ThumbnailURL)
	}
	return titles, urls, thumbnails
}

func checkItem(it models.Item) error {
	const op = "Extractor.Extract"

	if it.ID == "" {
		return apperrors.Structural(op, nil, "video result has no id")
	}
	if it.ThumbnailURL == "" {
		return apperrors.Structural(op, nil, fmt.Sprintf("video %s has no high-resolution thumbnail", it.ID))
	}
	return nil
}

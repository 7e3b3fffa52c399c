package search

import (
	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/logger"
	"github.com/shivendrra/synapse/models"
)

// BuildResultMap assembles output<i> entries from parallel slices. urls sets
// the iteration bound; an index missing from titles or thumbnails is logged
// and skipped.
func BuildResultMap(titles, urls, thumbnails []string, log logrus.FieldLogger) *models.ResultMap {
	const op = "search.BuildResultMap"
	if log == nil {
		log = logger.Discard()
	}

	out := models.NewResultMap()
	for i := range urls {
		if i >= len(titles) || i >= len(thumbnails) {
			log.WithError(apperrors.LengthMismatch(op, "index out of range")).
				WithField("index", i).
				Warn("Some lists are shorter than others")
			continue
		}
		out.Set(models.OrdinalKey(i), models.ResultEntry{
			Title:     titles[i],
			URL:       urls[i],
			Thumbnail: thumbnails[i],
		})
	}
	return out
}

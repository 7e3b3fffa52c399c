package convert

import (
	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/logger"
	"github.com/shivendrra/synapse/models"
)

// BuildPathMap pairs each source with the audio path at the same index.
// Failed conversions carry an empty path and are left out; the first
// occurrence of a repeated source wins.
func BuildPathMap(urls, audioPaths []string, log logrus.FieldLogger) *models.ConversionMap {
	const op = "convert.BuildPathMap"
	if log == nil {
		log = logger.Discard()
	}

	out := models.NewConversionMap()
	for i, src := range urls {
		if i >= len(audioPaths) {
			log.WithError(apperrors.LengthMismatch(op, "index out of range")).
				WithField("index", i).
				Warn("Some lists are shorter than others")
			continue
		}
		if audioPaths[i] == "" || models.Has(out, src) {
			continue
		}
		out.Set(src, audioPaths[i])
	}
	return out
}

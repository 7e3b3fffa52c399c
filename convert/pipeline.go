package convert

import (
	"context"
	"encoding/json"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/jsonfile"
	"github.com/shivendrra/synapse/logger"
	"github.com/shivendrra/synapse/models"
)

// AudioExtractor produces an audio file for one source.
type AudioExtractor interface {
	Extract(ctx context.Context, source string) (string, error)
}

type Recorder interface {
	RecordConversion(ctx context.Context, c models.Conversion) error
}

type Publisher interface {
	PublishFile(ctx context.Context, key, path string) error
}

type Config struct {
	// OutputPath, when set, also receives the JSON map.
	OutputPath string
	Timeout    time.Duration
}

type Pipeline struct {
	extractor AudioExtractor
	config    Config
	log       logrus.FieldLogger
	recorder  Recorder
	publisher Publisher
}

type Option func(*Pipeline)

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func NewPipeline(extractor AudioExtractor, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		config:    cfg,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert extracts audio for each distinct source in order. A failed item is
// logged and left out of the map; the rest of the batch still runs.
func (p *Pipeline) Convert(ctx context.Context, sources []string) *models.ConversionMap {
	return p.convert(ctx, uuid.New().String(), sources)
}

func (p *Pipeline) convert(ctx context.Context, runID string, sources []string) *models.ConversionMap {
	distinct := dedupe(sources)
	audioPaths := make([]string, 0, len(distinct))

	for _, src := range distinct {
		if ctx.Err() != nil {
			p.log.WithError(ctx.Err()).WithField("remaining", len(distinct)-len(audioPaths)).
				Warn("Conversion cancelled")
			break
		}
		audioPaths = append(audioPaths, p.convertOne(ctx, runID, src))
	}

	return BuildPathMap(distinct[:len(audioPaths)], audioPaths, p.log)
}

func (p *Pipeline) convertOne(ctx context.Context, runID, src string) string {
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "source": src})

	itemCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	record := models.Conversion{
		RunID:     runID,
		Source:    src,
		Status:    models.StatusCompleted,
		CreatedAt: time.Now(),
	}

	audioPath, err := p.extractor.Extract(itemCtx, src)
	if err != nil {
		log.WithError(err).Error("Failed to convert video")
		record.Status = models.StatusFailed
		record.Error = err.Error()
		audioPath = ""
	} else {
		record.AudioPath = audioPath
		log.WithField("audio_path", audioPath).Info("Converted video to audio")
		p.publish(ctx, log, path.Join("conversions", runID, filepath.Base(audioPath)), audioPath)
	}

	if p.recorder != nil {
		if err := p.recorder.RecordConversion(ctx, record); err != nil {
			log.WithError(err).Warn("Failed to record conversion")
		}
	}
	return audioPath
}

// Run converts sources and returns the map as a JSON string. The map is also
// written to OutputPath when one is configured.
func (p *Pipeline) Run(ctx context.Context, sources []string) (string, error) {
	const op = "Pipeline.Run"
	runID := uuid.New().String()
	log := p.log.WithField("run_id", runID)

	results := p.convert(ctx, runID, sources)
	log.WithFields(logrus.Fields{
		"sources":   len(sources),
		"converted": results.Len(),
	}).Info("Conversion finished")

	data, err := json.Marshal(results)
	if err != nil {
		return "", apperrors.IO(op, err, "failed to encode conversion map")
	}

	if p.config.OutputPath != "" {
		if err := jsonfile.Write(p.config.OutputPath, results); err != nil {
			log.WithError(err).WithField("path", p.config.OutputPath).Error("Failed to write results")
			return "", err
		}
		log.WithField("path", p.config.OutputPath).Info("written in the JSON file")
		p.publish(ctx, log, path.Join("conversions", runID, filepath.Base(p.config.OutputPath)), p.config.OutputPath)
	}

	return string(data), nil
}

func (p *Pipeline) publish(ctx context.Context, log logrus.FieldLogger, key, file string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishFile(ctx, key, file); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to publish file")
	}
}

// dedupe drops blank and repeated sources. Kept sources are returned exactly
// as given so they can key the conversion map.
func dedupe(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

package search

import (
	"context"
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

// Searcher is the search provider collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Item, error)
}

// Recorder persists a summary of each run.
type Recorder interface {
	RecordSearch(ctx context.Context, run models.SearchRun, results *models.ResultMap) error
}

// Publisher copies a finished output file to remote storage.
type Publisher interface {
	PublishFile(ctx context.Context, key, path string) error
}

type Config struct {
	WatchHost  string
	OutputPath string
	Timeout    time.Duration
}

type Pipeline struct {
	searcher  Searcher
	extractor *Extractor
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

func NewPipeline(searcher Searcher, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher: searcher,
		config:   cfg,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.extractor = NewExtractor(cfg.WatchHost, p.log)
	return p
}

// Search queries the provider and assembles the result map. A provider
// failure is logged and yields an empty map.
func (p *Pipeline) Search(ctx context.Context, query string) (*models.ResultMap, error) {
	const op = "Pipeline.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput(op, nil, "search string is required")
	}

	log := p.log.WithField("query", query)

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	items, err := p.searcher.Search(ctx, query)
	if err != nil {
		log.WithError(err).Error("An error occurred while fetching results")
		return models.NewResultMap(), nil
	}

	titles, urls, thumbnails := p.extractor.Extract(items)
	results := BuildResultMap(titles, urls, thumbnails, log)

	log.WithFields(logrus.Fields{
		"items":   len(items),
		"results": results.Len(),
	}).Debug("Assembled search results")

	return results, nil
}

// Run searches and writes the result map to the configured output path. The
// file is written even when there are no results.
func (p *Pipeline) Run(ctx context.Context, query string) (*models.ResultMap, error) {
	runID := uuid.New().String()
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "query": query})

	results, err := p.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if results.Len() == 0 {
		log.Infof("No videos found related to '%s'", strings.TrimSpace(query))
	}

	if err := jsonfile.Write(p.config.OutputPath, results); err != nil {
		log.WithError(err).WithField("path", p.config.OutputPath).Error("Failed to write results")
		return nil, err
	}
	log.WithField("path", p.config.OutputPath).Info("written in the JSON file")

	if p.recorder != nil {
		run := models.SearchRun{
			RunID:       runID,
			Query:       strings.TrimSpace(query),
			ResultCount: results.Len(),
			CreatedAt:   time.Now(),
		}
		if err := p.recorder.RecordSearch(ctx, run, results); err != nil {
			log.WithError(err).Warn("Failed to record search run")
		}
	}

	if p.publisher != nil {
		key := path.Join("searches", runID, filepath.Base(p.config.OutputPath))
		if err := p.publisher.PublishFile(ctx, key, p.config.OutputPath); err != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to publish results")
		}
	}

	return results, nil
}

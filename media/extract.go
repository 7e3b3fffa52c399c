package media

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/utils"
	"github.com/shivendrra/synapse/validation"
)

type Config struct {
	FFmpegPath string
	YtDlpPath  string
	OutputDir  string
	Format     string
}

// Extractor turns a video source, remote URL or local file, into an audio
// file under OutputDir.
type Extractor struct {
	cfg    Config
	runner Runner
	log    logrus.FieldLogger
	locks  pathLocks
}

func NewExtractor(cfg Config, runner Runner, log logrus.FieldLogger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if runner == nil {
		runner = NewExecRunner(log)
	}
	cfg.Format = strings.TrimPrefix(cfg.Format, ".")
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.YtDlpPath == "" {
		cfg.YtDlpPath = "yt-dlp"
	}
	return &Extractor{cfg: cfg, runner: runner, log: log}
}

// OutputPath is where the audio for source ends up. YouTube links use the
// video id. Anything else uses the sanitized base name plus a short
// fingerprint of the full source, so two sources sharing a base name never
// share an output file.
func (e *Extractor) OutputPath(source string) string {
	return filepath.Join(e.cfg.OutputDir, outputName(source)+"."+e.cfg.Format)
}

func outputName(source string) string {
	var base string
	if validation.IsRemote(source) {
		if id := validation.VideoID(source); isVideoID(id) {
			return id
		}
		base = remoteBase(source)
	} else {
		base = filepath.Base(source)
	}

	fp := sourceFingerprint(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if name := utils.SanitizeFilename(base); name != "" {
		return name + "-" + fp[:8]
	}
	return fp
}

// sourceFingerprint is a name-based UUID, stable for a given source string.
func sourceFingerprint(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}

func isVideoID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func remoteBase(source string) string {
	rest := source[strings.Index(source, "://")+3:]
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	i := strings.Index(rest, "/")
	if i < 0 {
		return ""
	}
	return path.Base(rest[i:])
}

func (e *Extractor) Extract(ctx context.Context, source string) (string, error) {
	const op = "Extractor.Extract"
	source = strings.TrimSpace(source)

	if err := validation.ValidateSource(source); err != nil {
		return "", apperrors.Media(op, err, "invalid source")
	}
	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return "", apperrors.Media(op, err, "failed to create audio directory")
	}

	dest := e.OutputPath(source)
	unlock := e.locks.lock(dest)
	defer unlock()

	tmpBase := filepath.Join(e.cfg.OutputDir,
		"."+strings.TrimSuffix(filepath.Base(dest), "."+e.cfg.Format)+"-"+uuid.NewString()[:8])
	tmpPath := tmpBase + "." + e.cfg.Format

	defer e.cleanup(tmpBase)

	logger := e.log.WithFields(logrus.Fields{
		"source": source,
		"output": dest,
	})
	logger.Info("Extracting audio")

	var err error
	if validation.IsRemote(source) {
		_, err = e.runner.Run(ctx, e.cfg.YtDlpPath, e.ytDlpArgs(source, tmpBase)...)
	} else {
		_, err = e.runner.Run(ctx, e.cfg.FFmpegPath, e.ffmpegArgs(source, tmpPath)...)
	}
	if err != nil {
		return "", apperrors.Media(op, err, "audio extraction failed")
	}

	info, statErr := os.Stat(tmpPath)
	if statErr != nil {
		return "", apperrors.Media(op, statErr, "no audio output produced")
	}
	if info.Size() == 0 {
		return "", apperrors.Media(op, nil, "audio output is empty")
	}

	if renameErr := os.Rename(tmpPath, dest); renameErr != nil {
		return "", apperrors.Media(op, renameErr, "failed to move audio into place")
	}

	logger.Info("Audio extracted")
	return dest, nil
}

func (e *Extractor) ytDlpArgs(url, tmpBase string) []string {
	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", e.cfg.Format,
		"-o", tmpBase + ".%(ext)s",
	}
	if strings.ContainsRune(e.cfg.FFmpegPath, filepath.Separator) {
		args = append(args, "--ffmpeg-location", e.cfg.FFmpegPath)
	}
	return append(args, url)
}

func (e *Extractor) ffmpegArgs(src, tmpPath string) []string {
	return []string{"-nostdin", "-y", "-i", src, "-vn", tmpPath}
}

// cleanup removes whatever is left under tmpBase, including intermediate
// downloads yt-dlp leaves behind.
func (e *Extractor) cleanup(tmpBase string) {
	matches, _ := filepath.Glob(tmpBase + ".*")
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			e.log.WithError(err).WithField("filename", m).Error("Failed to remove file")
		}
	}
}

// pathLocks serializes extractions that target the same output file.
type pathLocks struct {
	m sync.Map
}

func (l *pathLocks) lock(path string) func() {
	v, _ := l.m.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

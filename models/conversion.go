package models

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ConversionMap maps a source video URL or path to its extracted audio file.
type ConversionMap = orderedmap.OrderedMap[string, string]

func NewConversionMap() *ConversionMap {
	return orderedmap.New[string, string]()
}

// Conversion is the persisted outcome of one extraction attempt.
type Conversion struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	AudioPath string    `json:"audio_path,omitempty"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Conversion) IsFailed() bool { return c.Status == StatusFailed }

// SearchRun is the persisted summary of one search pipeline run.
type SearchRun struct {
	RunID       string    `json:"run_id"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

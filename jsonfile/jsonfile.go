package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/shivendrra/synapse/errors"
)

// Write encodes v as JSON into path, replacing any existing file. The file
// handle is closed on every path; a close failure is reported when the write
// itself succeeded.
func Write(path string, v any) (err error) {
	const op = "jsonfile.Write"

	if dir := filepath.Dir(path); dir != "" {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return apperrors.IO(op, mkErr, "failed to create output directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.IO(op, err, "failed to open output file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.IO(op, cerr, "failed to close output file")
		}
	}()

	if err := json.NewEncoder(f).Encode(v); err != nil {
		return apperrors.IO(op, err, "failed to write JSON")
	}
	return nil
}

func Read(path string, v any) error {
	const op = "jsonfile.Read"

	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.IO(op, err, "failed to read file")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.IO(op, err, "failed to parse JSON")
	}
	return nil
}

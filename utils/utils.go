package utils

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
)

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondWithError writes err as a JSON error body, using the status implied
// by its kind. Non-application errors become a generic 500.
func RespondWithError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !pkgerrors.As(err, &appErr) {
		appErr = apperrors.E(apperrors.KindUnknown, "", err, "Internal server error")
	}

	logrus.WithFields(logrus.Fields{
		"status_code": appErr.StatusCode(),
		"error":       appErr.Error(),
	}).Error("Request failed")

	HandleError(w, appErr.Message, appErr.StatusCode())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		HandleError(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(data, '\n'))
}

// SanitizeFilename reduces name to a safe single path element: letters,
// digits, '-', '_' and '.', with everything else collapsed to '_'.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}

	var builder strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			builder.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			builder.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(builder.String(), "._")
}

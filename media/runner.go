package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	apperrors "github.com/shivendrra/synapse/errors"
)

// Runner executes an external tool and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

const maxStderr = 2048

type ExecRunner struct {
	Log logrus.FieldLogger
}

func NewExecRunner(log logrus.FieldLogger) *ExecRunner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ExecRunner{Log: log}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	const op = "ExecRunner.Run"
	tool := filepath.Base(name)

	r.Log.WithFields(logrus.Fields{
		"tool": tool,
		"args": args,
	}).Debug("Executing command")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrOutput := tail(stderr.String(), maxStderr)
		r.Log.WithError(err).WithFields(logrus.Fields{
			"tool":   tool,
			"stderr": stderrOutput,
		}).Error("Command execution failed")

		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, apperrors.Media(op,
			pkgerrors.Wrapf(err, "stderr: %s", stderrOutput),
			fmt.Sprintf("%s failed", tool))
	}

	return stdout.Bytes(), nil
}

// tail keeps at most the last n bytes of s without splitting a rune.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

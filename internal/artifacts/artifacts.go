package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/config"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
	"github.com/scan-io-git/lintgate/internal/files"
)

// Launch statuses.
const (
	StatusOK                = "OK"
	StatusFailed            = "FAILED"
	StatusThresholdExceeded = "THRESHOLD_EXCEEDED"
	StatusSkipped           = "SKIPPED"
)

// Launch describes one command invocation.
type Launch struct {
	ID         string      `json:"id"`
	Command    string      `json:"command"`
	Tool       string      `json:"tool"`
	Args       interface{} `json:"args"`
	Result     interface{} `json:"result,omitempty"`
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// NewLaunch starts a launch record with a fresh id.
func NewLaunch(command, tool string, args interface{}) *Launch {
	return &Launch{
		ID:        uuid.NewString(),
		Command:   command,
		Tool:      tool,
		Args:      args,
		StartedAt: time.Now().UTC(),
	}
}

// Finish records the outcome of the launch.
func (l *Launch) Finish(result interface{}, err error) {
	l.FinishedAt = time.Now().UTC()
	l.Result = result

	var te *lgerrors.ThresholdExceededError
	switch {
	case err == nil:
		if l.Status == "" {
			l.Status = StatusOK
		}
	case errors.As(err, &te):
		l.Status = StatusThresholdExceeded
		l.Message = err.Error()
	default:
		l.Status = StatusFailed
		l.Message = err.Error()
	}
}

// GetArtifactName returns the artifact name of a launch.
// Example: analyse_lint_2025-09-15T08:28:46Z_1b4e28ba.lintgate-artifact.
func GetArtifactName(command, tool, id string, t time.Time) string {
	ts := t.UTC().Format(time.RFC3339)
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s_%s_%s.lintgate-artifact", command, tool, ts, short)
}

// SaveArtifactJSON writes the launch to <artifacts>/<name>.json and returns the full path.
func SaveArtifactJSON(cfg *config.Config, logger hclog.Logger, launch *Launch) (string, error) {
	dir := config.GetArtifactsHome(cfg)
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return "", err
	}
	base := GetArtifactName(launch.Command, launch.Tool, launch.ID, launch.StartedAt)
	path := filepath.Join(dir, base+".json")

	data, err := json.MarshalIndent(launch, "", "    ")
	if err != nil {
		return path, fmt.Errorf("error marshaling the launch data: %w", err)
	}

	if err := files.WriteJsonFile(path, data); err != nil {
		return path, fmt.Errorf("error writing launch artifact: %w", err)
	}
	logger.Debug("artifact saved to file", "path", path)

	return path, nil
}

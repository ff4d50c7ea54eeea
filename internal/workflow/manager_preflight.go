package workflow

import (
	"fmt"
	"strings"

	"mediaflow/internal/deps"
	"mediaflow/internal/logging"
	"mediaflow/internal/preflight"
)

// RunPreflight validates directories, the pipeline catalog and external
// binaries before workers start. Missing binaries are logged but do not
// block startup: only media that need them fail.
func (m *Manager) RunPreflight() error {
	var failures []string
	for _, r := range preflight.RunAll(m.cfg) {
		if r.Passed {
			m.logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.ErrorWithContext(m.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart the daemon"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}

	for _, dep := range deps.Missing(preflight.CheckSystemDeps(m.cfg)) {
		logging.WarnWithContext(m.logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldImpact, "video and audio media will fail inspection"),
		)
	}

	if len(failures) > 0 {
		return fmt.Errorf("preflight checks failed: %s", strings.Join(failures, "; "))
	}
	return nil
}

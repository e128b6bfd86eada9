package watchdog

import (
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"
)

// Re-alert intervals per alert class. Breach alerts are safety-critical and
// re-fire fastest.
const (
	DefaultAlertInterval = 300 * time.Second
	BreachAlertInterval  = 60 * time.Second
	MissingAlertInterval = 180 * time.Second
)

// AlertState rate-limits notifications per (strategy, condition) key. The
// last-emitted timestamps are persisted so a watchdog restart does not
// re-spam every standing condition.
type AlertState struct {
	path     string
	lastSent map[string]time.Time
	logger   *zap.Logger
	timeNow  func() time.Time
}

func NewAlertState(path string, logger *zap.Logger) *AlertState {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AlertState{
		path:     path,
		lastSent: map[string]time.Time{},
		logger:   logger,
		timeNow:  time.Now,
	}
	s.load()
	return s
}

func (s *AlertState) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var raw map[string]time.Time
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("alert state unreadable, starting fresh", zap.Error(err))
		return
	}
	s.lastSent = raw
}

func (s *AlertState) save() {
	data, err := json.MarshalIndent(s.lastSent, "", "    ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("failed to persist alert state", zap.Error(err))
	}
}

// ShouldAlert reports whether the key may alert now, and if so records the
// emission. Keys are never expired; their cardinality is bounded by the
// number of strategies times the handful of conditions.
func (s *AlertState) ShouldAlert(key string, minInterval time.Duration) bool {
	now := s.timeNow()
	if last, ok := s.lastSent[key]; ok && now.Sub(last) < minInterval {
		return false
	}
	s.lastSent[key] = now
	s.save()
	return true
}

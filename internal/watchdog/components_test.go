package watchdog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/watchdog"
	"go.uber.org/zap"
)

func TestConfigStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.json")
	store := watchdog.NewConfigStore(path)

	entries := map[string]*domain.StrategyConfig{
		"vwap_sbin": {
			File:          "vwap_sbin.yaml",
			Symbol:        "SBIN",
			Exchange:      "NSE",
			ScheduleStart: "09:15",
			ScheduleStop:  "15:30",
			ScheduleDays:  []string{"mon", "tue", "wed", "thu", "fri"},
			IsScheduled:   true,
			IsRunning:     true,
			PID:           intPtr(1234),
		},
	}
	require.NoError(t, store.Save(entries))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "vwap_sbin")
	assert.Equal(t, "SBIN", loaded["vwap_sbin"].Symbol)
	require.NotNil(t, loaded["vwap_sbin"].PID)
	assert.Equal(t, 1234, *loaded["vwap_sbin"].PID)

	// No stray temp files left behind.
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".strategies-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestConfigStore_MissingFileIsEmpty(t *testing.T) {
	store := watchdog.NewConfigStore(filepath.Join(t.TempDir(), "nope.json"))
	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConfigStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := watchdog.NewConfigStore(path).Load()
	assert.Error(t, err)
}

func TestAlertState_DedupeAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	s := watchdog.NewAlertState(path, zap.NewNop())
	s.SetTimeNow(func() time.Time { return now })

	assert.True(t, s.ShouldAlert("a:breach", time.Minute))
	assert.False(t, s.ShouldAlert("a:breach", time.Minute))

	now = now.Add(61 * time.Second)
	assert.True(t, s.ShouldAlert("a:breach", time.Minute))

	// A fresh instance reads the persisted timestamps.
	s2 := watchdog.NewAlertState(path, zap.NewNop())
	s2.SetTimeNow(func() time.Time { return now.Add(10 * time.Second) })
	assert.False(t, s2.ShouldAlert("a:breach", time.Minute))
	assert.True(t, s2.ShouldAlert("b:dead", time.Minute))
}

func TestShouldRunNow(t *testing.T) {
	cfg := &domain.StrategyConfig{
		IsScheduled:   true,
		ScheduleStart: "09:15",
		ScheduleStop:  "15:30",
		ScheduleDays:  []string{"mon", "tue", "wed", "thu", "fri"},
	}

	assert.True(t, watchdog.ShouldRunNow(cfg, tuesday(10, 0)))
	assert.False(t, watchdog.ShouldRunNow(cfg, tuesday(9, 14)))
	assert.False(t, watchdog.ShouldRunNow(cfg, tuesday(15, 31)))

	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	assert.False(t, watchdog.ShouldRunNow(cfg, saturday))

	// Defaults: weekdays, NSE hours.
	bare := &domain.StrategyConfig{IsScheduled: true}
	assert.True(t, watchdog.ShouldRunNow(bare, tuesday(12, 0)))
	assert.False(t, watchdog.ShouldRunNow(bare, saturday))

	// Unscheduled entries are never due.
	assert.False(t, watchdog.ShouldRunNow(&domain.StrategyConfig{}, tuesday(12, 0)))
}

func TestShouldRunNow_FullDayNames(t *testing.T) {
	cfg := &domain.StrategyConfig{
		IsScheduled:  true,
		ScheduleDays: []string{"Saturday", "Sunday"},
	}
	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	assert.True(t, watchdog.ShouldRunNow(cfg, saturday))
	assert.False(t, watchdog.ShouldRunNow(cfg, tuesday(10, 0)))
}

func TestScanForBreach_PicksNewestLogCaseInsensitive(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "vwap_sbin_2026-08-31_IST.log")
	require.NoError(t, os.WriteFile(older, []byte("all good\n"), 0o644))
	old := time.Now().Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(older, old, old))

	newest := filepath.Join(dir, "vwap_sbin_2026-09-01_IST.log")
	require.NoError(t, os.WriteFile(newest, []byte("warn: max DAILY loss exceeded\n"), 0o644))

	kw, found, err := watchdog.ScanForBreach(dir, "vwap_sbin")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Max daily loss", kw)

	// Other strategies' logs are not consulted.
	_, found, err = watchdog.ScanForBreach(dir, "momentum_gold")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScanForBreach_CleanLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x_2026-09-01_IST.log"),
		[]byte("cycle ok\nposition updated\n"), 0o644))

	_, found, err := watchdog.ScanForBreach(dir, "x")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAcquirePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.pid")

	release, err := watchdog.AcquirePIDFile(path)
	require.NoError(t, err)

	_, err = watchdog.AcquirePIDFile(path)
	assert.ErrorIs(t, err, watchdog.ErrAlreadyRunning)

	release()
	release2, err := watchdog.AcquirePIDFile(path)
	require.NoError(t, err)
	release2()
}

func TestAcquirePIDFile_ReclaimsStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.pid")
	require.NoError(t, os.WriteFile(path, []byte("999999"), 0o644))

	release, err := watchdog.AcquirePIDFile(path)
	require.NoError(t, err)
	release()
}

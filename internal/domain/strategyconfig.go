package domain

// StrategyConfig is one entry of the shared strategy-configuration store,
// keyed by strategy id. It is written by deployment tooling and reconciled
// by the watchdog; strategies themselves never touch it. The watchdog is the
// sole authority allowed to repair is_running/pid when they diverge from the
// live process table.
type StrategyConfig struct {
	File            string   `json:"file"`
	Symbol          string   `json:"symbol"`
	Exchange        string   `json:"exchange"`
	Interval        string   `json:"interval"`
	ScheduleStart   string   `json:"schedule_start"`
	ScheduleStop    string   `json:"schedule_stop"`
	ScheduleDays    []string `json:"schedule_days"`
	IsScheduled     bool     `json:"is_scheduled"`
	IsRunning       bool     `json:"is_running"`
	PID             *int     `json:"pid"`
	ManuallyStopped bool     `json:"manually_stopped"`
	PausedReason    string   `json:"paused_reason,omitempty"`
	PausedMessage   string   `json:"paused_message,omitempty"`
	LastStopped     string   `json:"last_stopped,omitempty"`
}

package watchdog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// breachKeywords are the log phrases that mean a strategy tripped its own
// risk controls and must be stopped externally. Matching is
// case-insensitive.
var breachKeywords = []string{
	"CIRCUIT BREAKER",
	"Max daily loss",
	"consecutive losses",
	"Trading halted",
}

// logTailBytes bounds how much of a log file is scanned. Breach lines are
// emitted at the moment of the halt, so only the recent tail matters.
const logTailBytes = 64 * 1024

// ScanForBreach looks at the newest daily log of the given strategy id and
// returns the first breach keyword found in its tail.
func ScanForBreach(logDir, strategyID string) (string, bool, error) {
	pattern := filepath.Join(logDir, strategyID+"_*_IST.log")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false, err
	}

	newest := matches[0]
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); mod >= newestMod {
			newestMod = mod
			newest = m
		}
	}

	tail, err := tailFile(newest, logTailBytes)
	if err != nil {
		return "", false, fmt.Errorf("scan %s: %w", newest, err)
	}

	lower := strings.ToLower(tail)
	for _, kw := range breachKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true, nil
		}
	}
	return "", false, nil
}

func tailFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if size := info.Size(); size > maxBytes {
		if _, err := f.Seek(size-maxBytes, io.SeekStart); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

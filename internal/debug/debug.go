package debug

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	enabled bool
	mu      sync.Mutex
	logs    []LogEntry
)

type LogEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Tool      string        `json:"tool"`
	Args      string        `json:"args"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"`
}

// Enable turns on debug logging
func Enable() {
	mu.Lock()
	enabled = true
	mu.Unlock()
}

// IsEnabled returns whether debug logging is enabled
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// LogStart logs the start of an adapter execution
func LogStart(tool string, args []string) time.Time {
	if !IsEnabled() {
		return time.Now()
	}
	start := time.Now()
	gray := color.New(color.FgHiBlack)
	gray.Printf("    [DEBUG %s] START: %s %s\n", start.Format("15:04:05.000"), tool, strings.Join(args, " "))
	return start
}

// LogEnd logs the completion of an adapter execution
func LogEnd(tool string, args []string, start time.Time, err error, outputLines int) {
	if !IsEnabled() {
		return
	}
	duration := time.Since(start)
	end := time.Now()

	status := "OK"
	statusColor := color.New(color.FgGreen)
	if err != nil {
		status = fmt.Sprintf("ERROR: %v", err)
		statusColor = color.New(color.FgRed)
	}

	gray := color.New(color.FgHiBlack)
	gray.Printf("    [DEBUG %s] END:   %s ", end.Format("15:04:05.000"), tool)
	statusColor.Printf("%s", status)
	gray.Printf(" (duration: %s, output: %d lines)\n", duration.Round(time.Millisecond), outputLines)

	mu.Lock()
	logs = append(logs, LogEntry{
		Timestamp: end,
		Tool:      tool,
		Args:      strings.Join(args, " "),
		Duration:  duration,
		Status:    status,
	})
	mu.Unlock()
}

// LogStageStart logs the start of a pipeline stage
func LogStageStart(stage string) time.Time {
	if !IsEnabled() {
		return time.Now()
	}
	start := time.Now()
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("    [DEBUG %s] STAGE START: %s\n", start.Format("15:04:05.000"), stage)
	return start
}

// LogStageEnd logs the end of a pipeline stage
func LogStageEnd(stage string, start time.Time) {
	if !IsEnabled() {
		return
	}
	duration := time.Since(start)
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("    [DEBUG %s] STAGE END:   %s (total: %s)\n", time.Now().Format("15:04:05.000"), stage, duration.Round(time.Millisecond))
}

// Summary prints a summary of all adapter executions
func Summary() {
	mu.Lock()
	entries := make([]LogEntry, len(logs))
	copy(entries, logs)
	mu.Unlock()

	if !IsEnabled() || len(entries) == 0 {
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	fmt.Println()
	cyan.Println("  DEBUG SUMMARY")

	var total time.Duration
	for _, l := range entries {
		status := "ok"
		if strings.HasPrefix(l.Status, "ERROR") {
			status = "error"
		}
		gray.Printf("    %-10s %10s  %s\n", l.Tool, l.Duration.Round(time.Millisecond), status)
		total += l.Duration
	}
	gray.Printf("    total adapter time: %s\n", total.Round(time.Millisecond))
}

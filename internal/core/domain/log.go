package domain

import "time"

const (
	DefaultLogRollNumber = "Unknown Roll Number"
	DefaultLogMessage    = "No logs message provided"
	DefaultLogStatus     = "unknown"
)

// LogEntry is a proctoring log line. Entries live only in process memory.
type LogEntry struct {
	RollNumber string    `json:"rollNumber"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

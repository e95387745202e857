// Package audit provides structured JSON logging for all scanner events.
package audit

import (
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
)

// sanitizeString strips control characters and ANSI escape sequences from a
// string before logging. Domains and page-derived strings come from
// arbitrary input files and fetched HTML; a crafted value must not be able
// to inject terminal escapes into tailed logs.
func sanitizeString(s string) string {
	// Fast path: most strings have no control characters.
	clean := true
	for _, r := range s {
		if r != '\t' && r != '\n' && (unicode.IsControl(r) || r == '\x1b') {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inEscape := false
	for _, r := range s {
		if inEscape {
			// ANSI escape sequences end with a letter (A-Z, a-z).
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if r != '\t' && r != '\n' && unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EventType describes the kind of audit event.
type EventType string

// Event type constants for structured log entries.
const (
	EventScanStart    EventType = "scan_start"
	EventScanComplete EventType = "scan_complete"
	EventScanFailed   EventType = "scan_failed"
	EventProbeTimeout EventType = "probe_timeout"
	EventBatchStart   EventType = "batch_start"
	EventBatchDone    EventType = "batch_done"
	EventConfigReload EventType = "config_reload"
)

// Logger handles structured logging using zerolog.
type Logger struct {
	zl         zerolog.Logger
	fileHandle *os.File // non-nil if logging to file
}

// New creates a logger. format is "json" or "text"; output is "stdout",
// "file", or "both". The caller should call Close when done.
func New(format, output, filePath string) (*Logger, error) {
	var writers []io.Writer

	if output == "stdout" || output == "both" {
		if format == "text" {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	var fileHandle *os.File
	if output == "file" || output == "both" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: path validated by config layer
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		fileHandle = f
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(w).With().
		Timestamp().
		Str("component", "agentready").
		Logger()

	return &Logger{zl: zl, fileHandle: fileHandle}, nil
}

// NewNop returns a no-op logger that discards all events.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// LogScanStart logs the beginning of one domain's pipeline run.
func (l *Logger) LogScanStart(batchID, scanID, domain string) {
	l.zl.Info().
		Str("event", string(EventScanStart)).
		Str("batch_id", batchID).
		Str("scan_id", scanID).
		Str("domain", sanitizeString(domain)).
		Msg("scan started")
}

// LogScanComplete logs a finished domain with its headline numbers.
func (l *Logger) LogScanComplete(batchID, scanID, domain, model, grade string, readiness, detected int, duration time.Duration) {
	l.zl.Info().
		Str("event", string(EventScanComplete)).
		Str("batch_id", batchID).
		Str("scan_id", scanID).
		Str("domain", sanitizeString(domain)).
		Str("business_model", model).
		Str("grade", grade).
		Int("readiness_score", readiness).
		Int("protocols_detected", detected).
		Dur("duration_ms", duration).
		Msg("scan complete")
}

// LogScanFailed logs a domain whose probe phase failed; the domain still
// completes with defaulted data.
func (l *Logger) LogScanFailed(batchID, scanID, domain string, err error) {
	l.zl.Warn().
		Str("event", string(EventScanFailed)).
		Str("batch_id", batchID).
		Str("scan_id", scanID).
		Str("domain", sanitizeString(domain)).
		Err(err).
		Msg("scan degraded to defaults")
}

// LogProbeTimeout logs one protocol probe missing its deadline.
func (l *Logger) LogProbeTimeout(scanID, domain, proto string) {
	l.zl.Warn().
		Str("event", string(EventProbeTimeout)).
		Str("scan_id", scanID).
		Str("domain", sanitizeString(domain)).
		Str("protocol", proto).
		Msg("probe timed out, defaulting to not_detected")
}

// LogBatchStart logs the start of a batch run.
func (l *Logger) LogBatchStart(batchID string, domains, concurrency int) {
	l.zl.Info().
		Str("event", string(EventBatchStart)).
		Str("batch_id", batchID).
		Int("domains", domains).
		Int("concurrency", concurrency).
		Msg("batch started")
}

// LogBatchDone logs batch completion with aggregate counts.
func (l *Logger) LogBatchDone(batchID string, scanned, failed int, duration time.Duration) {
	l.zl.Info().
		Str("event", string(EventBatchDone)).
		Str("batch_id", batchID).
		Int("scanned", scanned).
		Int("failed", failed).
		Dur("duration_ms", duration).
		Msg("batch finished")
}

// LogConfigReload logs a configuration reload event.
func (l *Logger) LogConfigReload(status, detail string) {
	l.zl.Info().
		Str("event", string(EventConfigReload)).
		Str("status", status).
		Str("detail", detail).
		Msg("configuration reloaded")
}

// LogStartup logs scanner startup.
func (l *Logger) LogStartup(version string) {
	l.zl.Info().
		Str("event", "startup").
		Str("version", version).
		Msg("agentready started")
}

// With returns a sub-logger that includes the given key-value pair in every
// log entry. The sub-logger shares the parent's file handle; only the root
// logger should be Close()'d.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Close cleans up the logger, flushing and closing any open file handles.
// Close is idempotent and safe to call multiple times.
func (l *Logger) Close() {
	if l.fileHandle != nil {
		_ = l.fileHandle.Sync()
		_ = l.fileHandle.Close()
		l.fileHandle = nil
	}
}

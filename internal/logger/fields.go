package logger

import (
	"log/slog"
	"time"
)

// Standard field keys. Use them consistently so runs can be correlated in
// log aggregation.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Process
	KeyComponent = "component"
	KeyError     = "error"
	KeyDuration  = "duration_ms"
	KeyBackend   = "backend"
	KeyPath      = "path"

	// Purge runs
	KeyRunID       = "run_id"
	KeyState       = "state"
	KeyFreeBytes   = "free_bytes"
	KeyLimitBytes  = "limit_bytes"
	KeyTargetBytes = "target_bytes"
	KeyBefore      = "space_before"
	KeyAfter       = "space_after"
	KeyPurged      = "units_purged"
	KeyFailures    = "failures"
	KeyPasses      = "passes"
	KeyCandidates  = "candidates"
	KeyExhausted   = "exhausted"

	// Catalog
	KeyStageID         = "stage_id"
	KeyPipeline        = "pipeline"
	KeyPipelineCounter = "pipeline_counter"
	KeyStage           = "stage"
	KeyStageCounter    = "stage_counter"
	KeyBytesFreed      = "bytes_freed"
)

// Err returns an error attribute. A nil error yields an empty attribute,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// RunID returns the purge run attribute.
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// StageID returns the catalog stage attribute.
func StageID(id string) slog.Attr {
	return slog.String(KeyStageID, id)
}

// FreeBytes returns the measured free space attribute.
func FreeBytes(n uint64) slog.Attr {
	return slog.Uint64(KeyFreeBytes, n)
}

// LimitBytes returns the trigger threshold attribute.
func LimitBytes(n uint64) slog.Attr {
	return slog.Uint64(KeyLimitBytes, n)
}

// TargetBytes returns the reclamation target attribute.
func TargetBytes(n uint64) slog.Attr {
	return slog.Uint64(KeyTargetBytes, n)
}

// Backend returns the storage backend attribute (filesystem, s3, sqlite, ...).
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// Path returns a filesystem path or object prefix attribute.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// DurationMs returns the elapsed milliseconds since start.
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDuration, Duration(start))
}

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanPurgeCycle = "purge.cycle"
	SpanPurgePass  = "purge.pass"
	SpanPurgeEvict = "purge.evict"
	SpanMonitor    = "monitor.check"
	SpanS3Delete   = "s3.delete_stage"
)

// Attribute keys.
const (
	AttrRunID       = "purge.run_id"
	AttrPass        = "purge.pass"
	AttrRequired    = "purge.required_bytes"
	AttrFreeBytes   = "purge.free_bytes"
	AttrCandidates  = "purge.candidates"
	AttrUnitsPurged = "purge.units_purged"
	AttrFailures    = "purge.failures"
	AttrExhausted   = "purge.exhausted"
	AttrCandidateID = "purge.candidate_id"
	AttrBackend     = "storage.backend"
	AttrBucket      = "storage.bucket"
	AttrPrefix      = "storage.prefix"
)

func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

func Pass(n int) attribute.KeyValue {
	return attribute.Int(AttrPass, n)
}

func RequiredBytes(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrRequired, clamp(n))
}

func FreeBytes(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrFreeBytes, clamp(n))
}

func Candidates(n int) attribute.KeyValue {
	return attribute.Int(AttrCandidates, n)
}

func UnitsPurged(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrUnitsPurged, int64(n))
}

func Failures(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrFailures, int64(n))
}

func Exhausted(b bool) attribute.KeyValue {
	return attribute.Bool(AttrExhausted, b)
}

func CandidateID(id string) attribute.KeyValue {
	return attribute.String(AttrCandidateID, id)
}

func Backend(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

func Prefix(p string) attribute.KeyValue {
	return attribute.String(AttrPrefix, p)
}

// int64 attributes cannot carry the Unbounded sentinel.
func clamp(n uint64) int64 {
	const max = 1<<63 - 1
	if n > max {
		return max
	}
	return int64(n)
}

// StartCycleSpan starts the root span of one purge run.
func StartCycleSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanPurgeCycle, trace.WithAttributes(RunID(runID)))
}

// StartEvictSpan starts a child span around a single eviction.
func StartEvictSpan(ctx context.Context, candidateID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{CandidateID(candidateID)}, attrs...)
	return StartSpan(ctx, SpanPurgeEvict, trace.WithAttributes(all...))
}

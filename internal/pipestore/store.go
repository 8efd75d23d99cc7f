package pipestore

import (
	"context"
	"sync"
	"time"

	"github.com/vkazantsev/flowcore/internal/ctxlog"
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// Store is the persistence interface a pipeline run serializes its context
// into and a later run loads a seed context from.
type Store interface {
	SerializeKeys(ctx context.Context, runID string, p *pipeline.Pipeline, keys []varset.AnyKey, tracked *pipectx.Tracked) error
	SerializePipeline(ctx context.Context, runID string, p *pipeline.Pipeline, tracked *pipectx.Tracked) error
	LoadContextForPipeline(ctx context.Context, runID string, p *pipeline.Pipeline, seed *pipectx.Tracked, overwrite, includeOutputs bool) (*pipectx.Tracked, error)
}

// InMemory is a thread-safe, in-memory Store: two maps, one holding the
// latest record per variable, one holding every historical record ever
// written. Neither map is pruned — retention policy is left to the caller.
type InMemory struct {
	mu          sync.Mutex
	latest      map[string]SerializedVariable
	historical  map[string]SerializedVariable
	lastTsByKey map[string]int64
}

// NewInMemory creates an empty in-memory Store.
func NewInMemory() *InMemory {
	return &InMemory{
		latest:      make(map[string]SerializedVariable),
		historical:  make(map[string]SerializedVariable),
		lastTsByKey: make(map[string]int64),
	}
}

// SerializeKeys writes a SerializedVariable for every key in keys that has
// a tracked entry in tracked, committing to both latest and historical
// together.
func (s *InMemory) SerializeKeys(ctx context.Context, runID string, p *pipeline.Pipeline, keys []varset.AnyKey, tracked *pipectx.Tracked) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := tracked.AsTypedMap()
	structHash := uint64(0)
	if p.Variables() != nil {
		structHash = p.Variables().StructuralHash(false)
	}

	for _, k := range keys {
		v, ok := values[k.ID()]
		if !ok {
			continue
		}
		encoded, err := varset.EncodeValue(k.Type(), v)
		if err != nil {
			return err
		}

		lk := latestKey(runID, p.ID(), k.Name())
		ts := s.nextTimestamp(lk)

		var src *SerializedSource
		if source := tracked.SourceFor(k.ID()); source != nil {
			src = &SerializedSource{Step: source.Step, InputHash: source.InputHash}
		}

		record := SerializedVariable{
			RunID:          runID,
			Pipeline:       p.ID(),
			StructuralHash: structHash,
			Source:         src,
			Timestamp:      ts,
			Key:            k.Name(),
			Value:          string(encoded),
		}

		s.latest[lk] = record
		s.historical[historicalKey(runID, p.ID(), k.Name(), ts)] = record
	}
	return nil
}

// SerializePipeline serializes every key the pipeline declares (consumes
// and produces across all steps).
func (s *InMemory) SerializePipeline(ctx context.Context, runID string, p *pipeline.Pipeline, tracked *pipectx.Tracked) error {
	return s.SerializeKeys(ctx, runID, p, p.AllVariables(true), tracked)
}

// nextTimestamp returns the current wall-clock millisecond timestamp,
// clamped forward past the most recent timestamp recorded for lk if
// necessary, so historical records for the same key are always strictly
// increasing. Must be called with s.mu held.
func (s *InMemory) nextTimestamp(lk string) int64 {
	now := time.Now().UnixMilli()
	if last, ok := s.lastTsByKey[lk]; ok && now <= last {
		now = last + 1
	}
	s.lastTsByKey[lk] = now
	return now
}

// LoadContextForPipeline builds a SourceTracked context from the latest
// record of every key in p.AllVariables(includeOutputs). Records whose
// structural hash differs from the current hash of p's VariableSet are
// skipped with a log, not an error. The hash compared is that of p's
// VariableSet, not of each key's owning Set; a pipeline built without a
// VariableSet writes and compares 0, so no layout change is detected for
// its keys. overwrite controls whether a key
// already present in seed is replaced by the loaded record.
func (s *InMemory) LoadContextForPipeline(ctx context.Context, runID string, p *pipeline.Pipeline, seed *pipectx.Tracked, overwrite, includeOutputs bool) (*pipectx.Tracked, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := ctxlog.FromContext(ctx)
	out := pipectx.FromAny(seed)

	currentHash := uint64(0)
	if p.Variables() != nil {
		currentHash = p.Variables().StructuralHash(false)
	}

	for _, k := range p.AllVariables(includeOutputs) {
		if !overwrite && out.Exists(k.ID()) {
			continue
		}

		record, ok := s.latest[latestKey(runID, p.ID(), k.Name())]
		if !ok {
			continue
		}
		if record.StructuralHash != currentHash {
			log.Warn("pipestore: skipping stale record, structural hash mismatch",
				"pipeline", p.ID(), "key", k.Name(), "recordHash", record.StructuralHash, "currentHash", currentHash)
			continue
		}

		value, err := k.DecodeAny([]byte(record.Value))
		if err != nil {
			log.Warn("pipestore: skipping record, decode failed", "pipeline", p.ID(), "key", k.Name(), "error", err)
			continue
		}

		var source *pipectx.Source
		if record.Source != nil {
			source = &pipectx.Source{Step: record.Source.Step, InputHash: record.Source.InputHash}
		}
		out.SetAny(k.ID(), value, source)
	}

	return out, nil
}

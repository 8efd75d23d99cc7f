package pipestore

import "strconv"

// SerializedSource mirrors pipectx.Source in the persisted record format:
// the step that produced the value, and the input hash it was produced
// with.
type SerializedSource struct {
	Step      string `json:"step"`
	InputHash uint64 `json:"inputHash"`
}

// SerializedVariable is the persisted record format. Field names are
// normative: run_id, pipeline, structuralHash, source, timestamp, key,
// value.
type SerializedVariable struct {
	RunID          string            `json:"run_id"`
	Pipeline       string            `json:"pipeline"`
	StructuralHash uint64            `json:"structuralHash"`
	Source         *SerializedSource `json:"source"`
	Timestamp      int64             `json:"timestamp"`
	Key            string            `json:"key"`
	Value          string            `json:"value"`
}

// latestKey formats the storage key for the latest map:
// "{run_id}|{pipeline_id}|{var_name}".
func latestKey(runID, pipelineID, varName string) string {
	return runID + "|" + pipelineID + "|" + varName
}

// historicalKey formats the storage key for the historical map:
// "{run_id}|{pipeline_id}|{var_name}|{timestamp_ms}".
func historicalKey(runID, pipelineID, varName string, timestampMs int64) string {
	return latestKey(runID, pipelineID, varName) + "|" + strconv.FormatInt(timestampMs, 10)
}

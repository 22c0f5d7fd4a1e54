package taskqueue

import (
	"encoding/json"
	"fmt"
)

// EncodeTask JSON-encodes a Task.
func EncodeTask(t Task) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", t.ID, err)
	}
	return data, nil
}

// DecodeTask decodes a Task produced by EncodeTask.
func DecodeTask(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &t, nil
}

package storage

import (
	"encoding/json"
	"log/slog"
)

// DecodeJSON unmarshals data into T, treating malformed input as absence.
// Every load path that reads persisted state funnels through here so corrupt
// records degrade the same way everywhere: one debug log, nil result, no error.
func DecodeJSON[T any](data string, what string) (*T, bool) {
	if data == "" {
		return nil, false
	}

	var out T
	err := json.Unmarshal([]byte(data), &out)
	if err != nil {
		slog.Debug("discarding corrupt record", "what", what, "error", err)
		return nil, false
	}

	return &out, true
}

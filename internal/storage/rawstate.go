package storage

import (
	"encoding/json"
	"fmt"
)

// RawState holds JSON sub-documents that belong to code outside the current
// process (for example another scene's saved state). Values round-trip
// verbatim so a writer never clobbers data it does not understand.
type RawState map[string]json.RawMessage

// Set stores v under key after marshalling it to JSON.
func (r *RawState) Set(key string, v any) error {
	if *r == nil {
		*r = RawState{}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal raw state %q: %w", key, err)
	}

	(*r)[key] = json.RawMessage(b)
	return nil
}

// Get unmarshals the value at key into out.
// Returns (found=false, nil) if not present.
func (r RawState) Get(key string, out any) (bool, error) {
	if r == nil {
		return false, nil
	}

	raw, ok := r[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal raw state %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the key, if present.
func (r RawState) Delete(key string) {
	if r == nil {
		return
	}
	delete(r, key)
}

// Clone returns a copy sharing no map structure with the original.
func (r RawState) Clone() RawState {
	if r == nil {
		return nil
	}

	out := make(RawState, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

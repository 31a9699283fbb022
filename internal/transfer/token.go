// Package transfer moves the config record between devices as a pasteable
// base64 token.
package transfer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lifeos/core/internal/domain/entities"
)

// Encode serializes the config record and encodes it as base64. The wire
// format carries no version byte.
func Encode(settings entities.Settings) (string, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a pasted token. Base64 failures and JSON failures surface as
// distinct errors so the UI can tell the user which half is broken; in either
// case the existing config is left untouched by the caller.
func Decode(token string) (entities.Settings, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return entities.Settings{}, fmt.Errorf("%w: %v", entities.ErrInvalidBase64, err)
	}

	// The payload must be a JSON object, not just any valid JSON.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return entities.Settings{}, entities.ErrInvalidJSON
	}

	var settings entities.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return entities.Settings{}, fmt.Errorf("%w: %v", entities.ErrInvalidJSON, err)
	}
	return settings, nil
}

// Import decodes a token and merges its non-zero fields into current. The
// merged result is returned for an explicit save; current is not modified.
func Import(current entities.Settings, token string) (entities.Settings, error) {
	incoming, err := Decode(token)
	if err != nil {
		return current, err
	}
	merged := current
	merged.Merge(incoming)
	return merged, nil
}

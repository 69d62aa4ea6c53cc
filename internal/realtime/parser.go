package realtime

import (
	"encoding/json"
	"fmt"
)

// Parse parses a push-feed payload. The server sends either a single message
// object or a batch array of them.
func Parse(data []byte) ([]Message, error) {
	data = trimLeadingSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var messages []Message
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parsing push message array: %w (data: %s)", err, truncate(data, 100))
		}
		return messages, nil
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parsing push message: %w (data: %s)", err, truncate(data, 100))
	}
	return []Message{msg}, nil
}

func trimLeadingSpace(data []byte) []byte {
	for len(data) > 0 && (data[0] == ' ' || data[0] == '\t' || data[0] == '\n' || data[0] == '\r') {
		data = data[1:]
	}
	return data
}

// truncate limits payload excerpts embedded in error messages.
func truncate(data []byte, maxLen int) string {
	if len(data) <= maxLen {
		return string(data)
	}
	return string(data[:maxLen]) + "..."
}

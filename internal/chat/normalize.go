package chat

import (
	"encoding/json"
	"fmt"
)

// coerceAnswer turns whatever the backend put in the answer field into
// display-safe text. The second return is false only when there is no
// answer at all; a present-but-non-string answer is rendered as its
// JSON form rather than rejected, so a malformed payload never
// propagates a type error out of the session.
func coerceAnswer(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}

	if data, err := json.Marshal(raw); err == nil {
		return string(data), true
	}
	return fmt.Sprintf("%v", raw), true
}

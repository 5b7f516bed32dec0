package realtime

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Event is one JSON payload received from the push stream.
type Event struct {
	raw []byte
}

// ParseEvent validates data and wraps it in an Event.
func ParseEvent(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return Event{}, ErrInvalidPayload
	}
	return Event{raw: append([]byte(nil), data...)}, nil
}

// Raw returns a copy of the payload bytes.
func (e Event) Raw() []byte {
	return append([]byte(nil), e.raw...)
}

// String returns the payload as text.
func (e Event) String() string {
	return string(e.raw)
}

// Get evaluates a gjson path against the payload.
func (e Event) Get(path string) gjson.Result {
	return gjson.GetBytes(e.raw, path)
}

// Field returns the top-level member named key. Dots in key are literal,
// so fully qualified type names such as "com.example.Heartbeat" work.
func (e Event) Field(key string) gjson.Result {
	return gjson.GetBytes(e.raw, escapeKey(key))
}

// Has reports whether the payload has a truthy top-level member named key.
func (e Event) Has(key string) bool {
	r := e.Field(key)
	return r.Exists() && r.Type != gjson.Null && r.Type != gjson.False
}

// Keys returns the top-level member names in payload order.
func (e Event) Keys() []string {
	var keys []string
	gjson.ParseBytes(e.raw).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.raw, v)
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
)

func escapeKey(key string) string {
	return pathEscaper.Replace(key)
}

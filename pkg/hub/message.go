// Package hub fans engine events out to websocket subscribers.
//
// One goroutine owns the subscriber set; publishers and connections talk to
// it over channels, so a slow browser tab can never stall the render loop.
package hub

import (
	"encoding/json"
	"time"
)

// Envelope is the wire form of every message sent to subscribers.
type Envelope struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// Encode marshals an envelope of the given type around data.
func Encode(kind string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Type: kind, Time: time.Now(), Data: data})
}

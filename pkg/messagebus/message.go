// Package messagebus is a client for the voice assistant's websocket
// message bus. Messages are JSON objects with a type, a data payload and a
// routing context.
package messagebus

import (
	"encoding/json"
	"fmt"
)

type Message struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
	Context map[string]any `json:"context,omitempty"`
}

func NewMessage(msgType string, data map[string]any) Message {
	if data == nil {
		data = map[string]any{}
	}

	return Message{Type: msgType, Data: data, Context: map[string]any{}}
}

// Reply builds a message routed back to the sender of m.
func (m Message) Reply(msgType string, data map[string]any) Message {
	reply := NewMessage(msgType, data)
	for k, v := range m.Context {
		reply.Context[k] = v
	}

	if src, ok := m.Context["source"]; ok {
		reply.Context["destination"] = src
	}
	if dst, ok := m.Context["destination"]; ok {
		reply.Context["source"] = dst
	}

	return reply
}

// String returns the data value for key, or "" when absent. Non string
// values are JSON encoded.
func (m Message) String(key string) string {
	v, ok := m.Data[key]
	if !ok || v == nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

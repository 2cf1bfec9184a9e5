// internal/models/event.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexibleID accepts a JSON string or number and keeps it as a decimal string.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string {
	return string(f)
}

// InboundEvent is one notification request read from the event stream.
type InboundEvent struct {
	UserID           FlexibleID             `json:"user_id,omitempty"`
	StudentID        FlexibleID             `json:"student_id,omitempty"`
	ParentID         FlexibleID             `json:"parent_id,omitempty"`
	NotificationType string                 `json:"notification_type,omitempty"`
	Title            string                 `json:"title,omitempty"`
	Body             string                 `json:"body,omitempty"`
	ETA              FlexibleID             `json:"eta,omitempty"`
	Data             map[string]interface{} `json:"data,omitempty"`
}

// UnmarshalJSON decodes recipient ids strictly. Optional text fields of another JSON
// type are kept as their JSON text, and a data value that is not an object is ignored.
func (e *InboundEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		UserID           FlexibleID      `json:"user_id"`
		StudentID        FlexibleID      `json:"student_id"`
		ParentID         FlexibleID      `json:"parent_id"`
		NotificationType json.RawMessage `json:"notification_type"`
		Title            json.RawMessage `json:"title"`
		Body             json.RawMessage `json:"body"`
		ETA              json.RawMessage `json:"eta"`
		Data             json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = InboundEvent{
		UserID:           raw.UserID,
		StudentID:        raw.StudentID,
		ParentID:         raw.ParentID,
		NotificationType: looseText(raw.NotificationType),
		Title:            looseText(raw.Title),
		Body:             looseText(raw.Body),
		ETA:              FlexibleID(looseText(raw.ETA)),
	}

	data := bytes.TrimSpace(raw.Data)
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &e.Data); err != nil {
			e.Data = nil
		}
	}
	return nil
}

// looseText returns a JSON string's value, or the compact JSON text of any other value.
func looseText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// RecipientHint returns the first non-empty of user_id, student_id and parent_id.
func (e InboundEvent) RecipientHint() string {
	for _, id := range []FlexibleID{e.UserID, e.StudentID, e.ParentID} {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

// DataStrings stringifies the data payload for push providers that only accept string values.
func (e InboundEvent) DataStrings() map[string]string {
	out := make(map[string]string, len(e.Data))
	for k, v := range e.Data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case json.Number:
			out[k] = val.String()
		case float64, bool, int, int64:
			out[k] = fmt.Sprint(val)
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(encoded)
		}
	}
	return out
}

package entity

import "encoding/json"

// Categories of copy variants read by the routine service.
const (
	CategoryReminder = "reminder_copy"
)

// Setting is one remotely configurable record. Copy variants keep their
// text under metadata.text.
type Setting struct {
	ID       string          `json:"id"`
	Category string          `json:"category,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func NewSetting(id string, category string, metadata json.RawMessage) *Setting {
	return &Setting{ID: id, Category: category, Metadata: metadata}
}

// Text returns metadata.text, or "" when the metadata has no text field.
func (s *Setting) Text() string {
	var m struct {
		Text string `json:"text"`
	}
	if len(s.Metadata) == 0 || json.Unmarshal(s.Metadata, &m) != nil {
		return ""
	}
	return m.Text
}

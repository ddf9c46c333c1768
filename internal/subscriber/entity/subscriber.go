package entity

import "encoding/json"

const (
	TierFree = "free"
	TierPro  = "pro"
)

// Subscriber is a user's subscription record. Users without a row are free.
type Subscriber struct {
	UserID   string          `json:"user_id" db:"user_id"`
	Email    string          `json:"email" db:"email"`
	Tier     string          `json:"tier" db:"tier"`
	Metadata json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}

func (s Subscriber) IsPro() bool { return s.Tier == TierPro }

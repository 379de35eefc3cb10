package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ChatMessage is one turn of the drafting conversation
type ChatMessage struct {
	Role    string `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
	Meta    string `json:"meta,omitempty" bson:"meta,omitempty"`
}

// ChatMessages represents a conversation history
type ChatMessages []ChatMessage

// Value implements driver.Valuer for JSONB
func (m ChatMessages) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *ChatMessages) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*m = ChatMessages{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = ChatMessages{}
		return nil
	}

	if len(bytes) == 0 {
		*m = ChatMessages{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// MemoryRecord is a stored snapshot of a conversation and its latest brief
type MemoryRecord struct {
	ClientID  *string      `json:"client_id,omitempty" bson:"client_id"`
	CaseID    *string      `json:"case_id,omitempty" bson:"case_id"`
	Messages  ChatMessages `json:"messages" bson:"messages"`
	LastBrief *string      `json:"last_brief" bson:"last_brief"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

package message

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Msg is a single role-tagged chat turn. Content is usually a string but may
// be a mapping carrying a "text" field.
type Msg struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Content   any       `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func New(name string, role Role, content any) Msg {
	return Msg{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func Assistant(content any) Msg {
	return New("assistant", RoleAssistant, content)
}

// Text returns the textual part of the message content.
func (m Msg) Text() string {
	switch c := m.Content.(type) {
	case nil:
		return ""
	case string:
		return c
	case map[string]any:
		if v, ok := c["text"]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	case map[string]string:
		if v, ok := c["text"]; ok {
			return v
		}
	}
	return fmt.Sprint(m.Content)
}

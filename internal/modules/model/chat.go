package model

import (
	"time"

	"github.com/google/uuid"
)

type SenderType = string

const (
	SenderUser      SenderType = "user"
	SenderAssistant SenderType = "assistant"
)

type ChatSession struct {
	ID                  uuid.UUID `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey" json:"session_id"`
	UserID              uint      `gorm:"not null;index" json:"user_id"`
	PersonaID           uint      `gorm:"not null;index" json:"persona_id"`
	SessionName         *string   `gorm:"type:varchar(255)" json:"session_name"`
	IsActive            bool      `gorm:"not null;default:true" json:"is_active"`
	ConversationSummary *string   `gorm:"type:text" json:"conversation_summary"`
	// SummarizedCount is how many of the oldest messages the summary covers.
	SummarizedCount int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"updated_at"`

	// ChatSession <-> User
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// ChatSession <-> Persona
	Persona *Persona `gorm:"foreignKey:PersonaID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"-"`

	// ChatSession <-> ChatMessage
	Messages []ChatMessage `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// Summary returns the conversation summary or "".
func (s *ChatSession) Summary() string {
	if s == nil || s.ConversationSummary == nil {
		return ""
	}
	return *s.ConversationSummary
}

type ChatMessage struct {
	ID         uuid.UUID  `gorm:"column:message_id;type:uuid;default:gen_random_uuid();primaryKey" json:"message_id"`
	SessionID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_chat_messages_session_created,priority:1" json:"session_id"`
	SenderType SenderType `gorm:"type:varchar(16);not null" json:"sender_type"`
	Content    string     `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `gorm:"not null;index:idx_chat_messages_session_created,priority:2" json:"created_at"`

	// ChatMessage <-> ChatSession
	Session *ChatSession `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

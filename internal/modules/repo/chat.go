package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"gorm.io/gorm"
)

type ChatRepo interface {
	CreateSession(ctx context.Context, s *model.ChatSession) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	// UpdateSummary stores summary as covering the first folded messages.
	UpdateSummary(ctx context.Context, sessionID uuid.UUID, summary string, folded int) error

	CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error)
	// RecentMessages returns the newest n messages in chronological order.
	RecentMessages(ctx context.Context, sessionID uuid.UUID, n int) ([]model.ChatMessage, error)
	ListMessagesWithCursor(ctx context.Context, sessionID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.ChatMessage, error)
	// AppendTurn writes the user message, then the assistant message, and sets
	// the session's updated_at to the assistant message time, in one transaction.
	AppendTurn(ctx context.Context, sessionID uuid.UUID, user, assistant *model.ChatMessage) error
}

type chatRepo struct{ db *gorm.DB }

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepo{db: db}
}

func (r *chatRepo) CreateSession(ctx context.Context, s *model.ChatSession) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *chatRepo) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ChatSession, error) {
	var s model.ChatSession
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *chatRepo) ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	return sessions, r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, session_id DESC").
		Find(&sessions).Error
}

func (r *chatRepo) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&model.ChatSession{}).Error
	})
}

func (r *chatRepo) UpdateSummary(ctx context.Context, sessionID uuid.UUID, summary string, folded int) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"conversation_summary": summary, "summarized_count": folded}).Error
}

func (r *chatRepo) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}

func (r *chatRepo) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	return messages, r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, message_id ASC").
		Find(&messages).Error
}

func (r *chatRepo) RecentMessages(ctx context.Context, sessionID uuid.UUID, n int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, message_id DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepo) ListMessagesWithCursor(ctx context.Context, sessionID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID)

	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where(
			"(created_at > ?) OR (created_at = ? AND message_id > ?)",
			afterCreatedAt, afterCreatedAt, afterID,
		)
	}

	var items []model.ChatMessage
	return items, q.Order("created_at ASC, message_id ASC").Limit(limit).Find(&items).Error
}

func (r *chatRepo) AppendTurn(ctx context.Context, sessionID uuid.UUID, user, assistant *model.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.SessionID = sessionID
		assistant.SessionID = sessionID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Create(assistant).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("session_id = ?", sessionID).
			Update("updated_at", assistant.CreatedAt).Error
	})
}

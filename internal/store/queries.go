// File path: internal/store/queries.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fillora/fillora/internal/document"
)

// ErrNotFound marks a lookup that matched nothing.
var ErrNotFound = errors.New("not found")

// Conversation is one template-filling session.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Template  string    `db:"template" json:"template,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message is one stored conversation turn.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           string    `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Snapshot is one persisted document body.
type Snapshot struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Kind           string    `db:"kind" json:"kind"`
	Body           string    `db:"body" json:"body"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Entity is one extracted registry record. Attributes hold a closed scalar
// union only; normalization happens before persistence.
type Entity struct {
	EntityType string                 `json:"entity_type"`
	EntityName string                 `json:"entity_name"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

const (
	// SnapshotIntermediate rows are overwritten in place per conversation.
	SnapshotIntermediate = "intermediate"
	// SnapshotFinal rows accumulate; the newest is authoritative.
	SnapshotFinal = "final"
)

// CreateConversation inserts a new conversation and returns it.
func (s *Store) CreateConversation(ctx context.Context, title string) (Conversation, error) {
	conv := Conversation{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		CreatedAt: time.Now().UTC(),
	}
	if conv.Title == "" {
		conv.Title = "Untitled document"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at) VALUES (?, ?, ?)`,
		conv.ID, conv.Title, conv.CreatedAt)
	if err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

// Conversation fetches a conversation by id.
func (s *Store) Conversation(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := s.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	return conv, nil
}

// Conversations lists all sessions, newest first.
func (s *Store) Conversations(ctx context.Context) ([]Conversation, error) {
	convs := []Conversation{}
	if err := s.db.SelectContext(ctx, &convs,
		`SELECT * FROM conversations ORDER BY created_at DESC, id`); err != nil {
		return nil, fmt.Errorf("select conversations: %w", err)
	}
	return convs, nil
}

// SetTemplate stores the uploaded template text for a conversation.
func (s *Store) SetTemplate(ctx context.Context, id, template string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET template = ? WHERE id = ?`, template, id)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage records one conversation turn.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content) VALUES (?, ?, ?)`,
		conversationID, strings.ToLower(role), content)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// History returns a conversation's messages in chronological order.
func (s *Store) History(ctx context.Context, conversationID string) ([]Message, error) {
	msgs := []Message{}
	if err := s.db.SelectContext(ctx, &msgs,
		`SELECT * FROM messages WHERE conversation_id = ? ORDER BY id`, conversationID); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	return msgs, nil
}

// SaveEdit creates or overwrites a user edit whole; edits are never
// partially mutated.
func (s *Store) SaveEdit(ctx context.Context, conversationID, fieldID, content, userID string) error {
	if strings.TrimSpace(fieldID) == "" {
		return errors.New("field id required")
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO user_edits (conversation_id, field_id, content, user_id, updated_at)
                VALUES (?, ?, ?, ?, ?)
                ON CONFLICT(conversation_id, field_id)
                DO UPDATE SET content = excluded.content, user_id = excluded.user_id,
                              updated_at = excluded.updated_at`,
		conversationID, fieldID, content, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert edit: %w", err)
	}
	return nil
}

// DeleteEdit removes a single edit.
func (s *Store) DeleteEdit(ctx context.Context, conversationID, fieldID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_edits WHERE conversation_id = ? AND field_id = ?`,
		conversationID, fieldID)
	if err != nil {
		return fmt.Errorf("delete edit: %w", err)
	}
	return nil
}

// ClearEdits wholesale-clears a conversation's edits.
func (s *Store) ClearEdits(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_edits WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("clear edits: %w", err)
	}
	return nil
}

// EditsFor returns the conversation's edits keyed by field id, in the form
// the merger consumes.
func (s *Store) EditsFor(ctx context.Context, conversationID string) (map[string]document.Edit, error) {
	rows := []struct {
		FieldID   string    `db:"field_id"`
		Content   string    `db:"content"`
		UserID    string    `db:"user_id"`
		UpdatedAt time.Time `db:"updated_at"`
	}{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT field_id, content, user_id, updated_at FROM user_edits
                 WHERE conversation_id = ? ORDER BY field_id`, conversationID); err != nil {
		return nil, fmt.Errorf("select edits: %w", err)
	}
	edits := make(map[string]document.Edit, len(rows))
	for _, row := range rows {
		edits[row.FieldID] = document.Edit{
			FieldID:   row.FieldID,
			Content:   row.Content,
			Timestamp: row.UpdatedAt,
			UserID:    row.UserID,
		}
	}
	return edits, nil
}

// SaveIntermediateSnapshot overwrites the single in-progress body kept per
// conversation while a stream runs.
func (s *Store) SaveIntermediateSnapshot(ctx context.Context, conversationID, body string) error {
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO snapshots (conversation_id, kind, body)
                VALUES (?, 'intermediate', ?)
                ON CONFLICT(conversation_id) WHERE kind = 'intermediate'
                DO UPDATE SET body = excluded.body, created_at = CURRENT_TIMESTAMP`,
		conversationID, body)
	if err != nil {
		return fmt.Errorf("save intermediate snapshot: %w", err)
	}
	return nil
}

// SaveFinalSnapshot appends an authoritative compiled body.
func (s *Store) SaveFinalSnapshot(ctx context.Context, conversationID, body string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (conversation_id, kind, body) VALUES (?, 'final', ?)`,
		conversationID, body)
	if err != nil {
		return fmt.Errorf("save final snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest final body, falling back to the
// in-progress intermediate one when no final snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context, conversationID string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.GetContext(ctx, &snap, `
                SELECT * FROM snapshots WHERE conversation_id = ? AND kind = 'final'
                ORDER BY id DESC LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.GetContext(ctx, &snap, `
                        SELECT * FROM snapshots WHERE conversation_id = ? AND kind = 'intermediate'
                        LIMIT 1`, conversationID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select snapshot: %w", err)
	}
	return snap, nil
}

// ReplaceEntities swaps the conversation's entity registry for the given
// records in one transaction.
func (s *Store) ReplaceEntities(ctx context.Context, conversationID string, entities []Entity) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entity replace: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entities WHERE conversation_id = ?`, conversationID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear entities: %w", err)
	}
	for _, entity := range entities {
		attrs, err := json.Marshal(entity.Attributes)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode entity attributes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
                        INSERT INTO entities (conversation_id, entity_type, entity_name, attributes)
                        VALUES (?, ?, ?, ?)`,
			conversationID, entity.EntityType, entity.EntityName, string(attrs)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert entity: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entity replace: %w", err)
	}
	return nil
}

// EntitiesFor returns the stored registry for a conversation.
func (s *Store) EntitiesFor(ctx context.Context, conversationID string) ([]Entity, error) {
	rows := []struct {
		EntityType string `db:"entity_type"`
		EntityName string `db:"entity_name"`
		Attributes string `db:"attributes"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, `
                SELECT entity_type, entity_name, attributes FROM entities
                WHERE conversation_id = ? ORDER BY id`, conversationID); err != nil {
		return nil, fmt.Errorf("select entities: %w", err)
	}
	entities := make([]Entity, 0, len(rows))
	for _, row := range rows {
		entity := Entity{EntityType: row.EntityType, EntityName: row.EntityName}
		if strings.TrimSpace(row.Attributes) != "" {
			if err := json.Unmarshal([]byte(row.Attributes), &entity.Attributes); err != nil {
				return nil, fmt.Errorf("decode entity attributes: %w", err)
			}
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Package sqldriver implements storage.Driver over database/sql with sqlx.
// Dialect packages (sqlite, postgres) open the connection and hand it here.
package sqldriver

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Driver implements storage.Driver on a SQL database.
type Driver struct {
	DB     *sqlx.DB
	policy storage.Policy
}

var _ storage.Driver = (*Driver)(nil)

// Options configures a Driver.
type Options struct {
	Policy storage.Policy
	Logger *slog.Logger
}

// New wraps db, applies pending migrations for dialect and returns the
// driver. driverName selects sqlx's bind style.
func New(ctx context.Context, db *sql.DB, driverName string, dialect goose.Dialect, opts Options) (*Driver, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	if err := Migrate(ctx, db, dialect, opts.Logger); err != nil {
		return nil, err
	}

	return &Driver{
		DB:     sqlx.NewDb(db, driverName),
		policy: opts.Policy.WithDefaults(),
	}, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, log *slog.Logger) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		log.Debug("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (d *Driver) EnsureUser(ctx context.Context, id string) (*storage.User, bool, error) {
	u, err := d.GetUser(ctx, id)
	if err == nil {
		return u, false, nil
	}
	if !errors.As(err, &storage.NotFoundError{}) {
		return nil, false, err
	}

	u = &storage.User{
		ID:        id,
		Username:  storage.Username(id),
		Profile:   storage.DefaultProfile(),
		CreatedAt: storage.Now(),
	}
	_, err = d.DB.ExecContext(ctx, d.DB.Rebind(
		`INSERT INTO users (id, username, personality_profile, created_at) VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, jsonColumn[map[string]string]{u.Profile}, u.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, true, nil
}

type userRow struct {
	storage.User
	Profile jsonColumn[map[string]string] `db:"personality_profile"`
}

func (d *Driver) GetUser(ctx context.Context, id string) (*storage.User, error) {
	var row userRow
	err := d.DB.GetContext(ctx, &row, d.DB.Rebind(
		`SELECT id, username, personality_profile, created_at FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: storage.KindUser, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := row.User
	u.Profile = row.Profile.V
	return &u, nil
}

const conversationColumns = `id, user_id, title, summary, dominant_emotion, created_at, last_message_at, is_active`

func (d *Driver) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = storage.Now()
	}
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = conv.CreatedAt
	}
	conv.Active = true

	_, err := d.DB.NamedExecContext(ctx,
		`INSERT INTO conversations (`+conversationColumns+`)
		 VALUES (:id, :user_id, :title, :summary, :dominant_emotion, :created_at, :last_message_at, :is_active)`,
		conv)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (d *Driver) GetConversation(ctx context.Context, userID, id string) (*storage.Conversation, error) {
	var c storage.Conversation
	err := d.DB.GetContext(ctx, &c, d.DB.Rebind(
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: storage.KindConversation, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

func (d *Driver) ListConversations(ctx context.Context, userID string, activeOnly bool) ([]*storage.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE user_id = ?`
	args := []any{userID}
	if activeOnly {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY last_message_at DESC, id ASC`

	var out []*storage.Conversation
	if err := d.DB.SelectContext(ctx, &out, d.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return out, nil
}

func (d *Driver) UpdateConversation(ctx context.Context, id string, update storage.ConversationUpdate) error {
	set := map[string]any{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Summary != nil {
		set["summary"] = *update.Summary
	}
	if update.DominantEmotion != nil {
		set["dominant_emotion"] = *update.DominantEmotion
	}
	if update.LastMessageAt != nil {
		set["last_message_at"] = *update.LastMessageAt
	}
	if update.Active != nil {
		set["is_active"] = *update.Active
	}

	query := `UPDATE conversations SET id = id`
	args := []any{}
	for _, col := range []string{"title", "summary", "dominant_emotion", "last_message_at", "is_active"} {
		if v, ok := set[col]; ok {
			query += `, ` + col + ` = ?`
			args = append(args, v)
		}
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := d.DB.ExecContext(ctx, d.DB.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.NotFoundError{Kind: storage.KindConversation, ID: id}
	}
	return nil
}

type messageRow struct {
	ID             string                          `db:"id"`
	ConversationID string                          `db:"conversation_id"`
	Content        string                          `db:"content"`
	IsUser         bool                            `db:"is_user"`
	Emotions       jsonColumn[[]lexicon.EmotionTag] `db:"detected_emotions"`
	Topics         jsonColumn[[]string]            `db:"detected_topics"`
	Sentiment      float64                         `db:"sentiment_score"`
	Intent         string                          `db:"intent"`
	SentAt         time.Time                       `db:"sent_at"`
}

func (d *Driver) AddMessage(ctx context.Context, msg *storage.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = storage.Now()
	}

	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var position int
	err = tx.GetContext(ctx, &position, tx.Rebind(
		`SELECT COUNT(m.id) FROM conversations c LEFT JOIN messages m ON m.conversation_id = c.id
		 WHERE c.id = ? GROUP BY c.id`), msg.ConversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.NotFoundError{Kind: storage.KindConversation, ID: msg.ConversationID}
	}
	if err != nil {
		return fmt.Errorf("failed to locate conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO messages
		   (id, conversation_id, position, content, is_user, detected_emotions, detected_topics, sentiment_score, intent, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		msg.ID, msg.ConversationID, position, msg.Content, msg.IsUser,
		jsonColumn[[]lexicon.EmotionTag]{orEmpty(msg.Emotions)}, jsonColumn[[]string]{orEmpty(msg.Topics)},
		msg.Sentiment, msg.Intent, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return tx.Commit()
}

func (d *Driver) ListMessages(ctx context.Context, conversationID string) ([]*storage.Message, error) {
	var rows []messageRow
	err := d.DB.SelectContext(ctx, &rows, d.DB.Rebind(
		`SELECT id, conversation_id, content, is_user, detected_emotions, detected_topics, sentiment_score, intent, sent_at
		 FROM messages WHERE conversation_id = ? ORDER BY position ASC`), conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]*storage.Message, len(rows))
	for i, r := range rows {
		out[i] = &storage.Message{
			ID:             r.ID,
			ConversationID: r.ConversationID,
			Content:        r.Content,
			IsUser:         r.IsUser,
			Emotions:       r.Emotions.V,
			Topics:         r.Topics.V,
			Sentiment:      r.Sentiment,
			Intent:         r.Intent,
			Timestamp:      r.SentAt,
		}
	}
	return out, nil
}

func (d *Driver) CountMessages(ctx context.Context, conversationID string) (storage.MessageCounts, error) {
	var counts struct {
		Total int           `db:"total"`
		User  sql.NullInt64 `db:"user_count"`
	}
	err := d.DB.GetContext(ctx, &counts, d.DB.Rebind(
		`SELECT COUNT(*) AS total, SUM(CASE WHEN is_user THEN 1 ELSE 0 END) AS user_count
		 FROM messages WHERE conversation_id = ?`), conversationID)
	if err != nil {
		return storage.MessageCounts{}, fmt.Errorf("failed to count messages: %w", err)
	}
	return storage.MessageCounts{Total: counts.Total, User: int(counts.User.Int64)}, nil
}

func (d *Driver) UpsertFact(ctx context.Context, userID, conversationID string, c facts.Candidate) (bool, error) {
	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := storage.Now()
	var existing storage.Fact
	err = tx.GetContext(ctx, &existing, tx.Rebind(
		`SELECT id, confidence FROM user_facts WHERE user_id = ? AND key = ?`), userID, c.Key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO user_facts
			   (id, user_id, fact_type, key, value, confidence, source_conversation_id, times_confirmed, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`),
			uuid.NewString(), userID, c.Type, c.Key, c.Value, c.Confidence, conversationID, now, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert fact: %w", err)
		}
		return true, tx.Commit()
	case err != nil:
		return false, fmt.Errorf("failed to get fact: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`UPDATE user_facts SET value = ?, confidence = ?, times_confirmed = times_confirmed + 1, updated_at = ?
		 WHERE id = ?`),
		c.Value, d.policy.ReinforceFact(existing.Confidence), now, existing.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update fact: %w", err)
	}
	return false, tx.Commit()
}

func (d *Driver) ListFacts(ctx context.Context, userID string) ([]*storage.Fact, error) {
	var out []*storage.Fact
	err := d.DB.SelectContext(ctx, &out, d.DB.Rebind(
		`SELECT id, user_id, fact_type, key, value, confidence, source_conversation_id, times_confirmed, created_at, updated_at
		 FROM user_facts WHERE user_id = ? ORDER BY key ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	return out, nil
}

func (d *Driver) UpsertTheme(ctx context.Context, conversationID, theme string) error {
	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := storage.Now()
	var existing storage.Theme
	err = tx.GetContext(ctx, &existing, tx.Rebind(
		`SELECT id, confidence FROM conversation_themes WHERE conversation_id = ? AND theme = ?`),
		conversationID, theme)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO conversation_themes (id, conversation_id, theme, confidence, first_mentioned, last_mentioned)
			 VALUES (?, ?, ?, ?, ?, ?)`),
			uuid.NewString(), conversationID, theme, d.policy.ThemeInitial, now, now)
	case err == nil:
		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE conversation_themes SET confidence = ?, last_mentioned = ? WHERE id = ?`),
			d.policy.ReinforceTheme(existing.Confidence), now, existing.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert theme: %w", err)
	}
	return tx.Commit()
}

func (d *Driver) ListThemes(ctx context.Context, conversationID string) ([]*storage.Theme, error) {
	var out []*storage.Theme
	err := d.DB.SelectContext(ctx, &out, d.DB.Rebind(
		`SELECT id, conversation_id, theme, confidence, first_mentioned, last_mentioned
		 FROM conversation_themes WHERE conversation_id = ? ORDER BY first_mentioned ASC, theme ASC`), conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return out, nil
}

func (d *Driver) AddFeedback(ctx context.Context, fb *storage.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = storage.Now()
	}
	_, err := d.DB.NamedExecContext(ctx,
		`INSERT INTO response_feedback
		   (id, message_id, response_type, response_template, user_engagement_score, conversation_continued, user_sentiment_change, created_at)
		 VALUES (:id, :message_id, :response_type, :response_template, :user_engagement_score, :conversation_continued, :user_sentiment_change, :created_at)`,
		fb)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

type summaryRow struct {
	ID               string               `db:"id"`
	ConversationID   string               `db:"conversation_id"`
	Type             string               `db:"summary_type"`
	KeyPoints        jsonColumn[[]string] `db:"key_points"`
	EmotionalJourney jsonColumn[[]string] `db:"emotional_journey"`
	TopicsCovered    jsonColumn[[]string] `db:"topics_covered"`
	Revelations      jsonColumn[[]string] `db:"user_revelations"`
	CreatedAt        time.Time            `db:"created_at"`
}

func (d *Driver) AddSummary(ctx context.Context, s *storage.ConversationSummary) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = storage.Now()
	}
	row := summaryRow{
		ID:               s.ID,
		ConversationID:   s.ConversationID,
		Type:             s.Type,
		KeyPoints:        jsonColumn[[]string]{orEmpty(s.KeyPoints)},
		EmotionalJourney: jsonColumn[[]string]{orEmpty(s.EmotionalJourney)},
		TopicsCovered:    jsonColumn[[]string]{orEmpty(s.TopicsCovered)},
		Revelations:      jsonColumn[[]string]{orEmpty(s.Revelations)},
		CreatedAt:        s.CreatedAt,
	}
	_, err := d.DB.NamedExecContext(ctx,
		`INSERT INTO conversation_summaries
		   (id, conversation_id, summary_type, key_points, emotional_journey, topics_covered, user_revelations, created_at)
		 VALUES (:id, :conversation_id, :summary_type, :key_points, :emotional_journey, :topics_covered, :user_revelations, :created_at)`,
		row)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

func (d *Driver) ListSummaries(ctx context.Context, conversationID string) ([]*storage.ConversationSummary, error) {
	var rows []summaryRow
	err := d.DB.SelectContext(ctx, &rows, d.DB.Rebind(
		`SELECT id, conversation_id, summary_type, key_points, emotional_journey, topics_covered, user_revelations, created_at
		 FROM conversation_summaries WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`), conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	out := make([]*storage.ConversationSummary, len(rows))
	for i, r := range rows {
		out[i] = &storage.ConversationSummary{
			ID:               r.ID,
			ConversationID:   r.ConversationID,
			Type:             r.Type,
			KeyPoints:        r.KeyPoints.V,
			EmotionalJourney: r.EmotionalJourney.V,
			TopicsCovered:    r.TopicsCovered.V,
			Revelations:      r.Revelations.V,
			CreatedAt:        r.CreatedAt,
		}
	}
	return out, nil
}

func (d *Driver) Stats(ctx context.Context) (storage.Stats, error) {
	var s storage.Stats
	err := d.DB.GetContext(ctx, &s, d.DB.Rebind(`SELECT
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM conversations) AS conversations,
		(SELECT COUNT(*) FROM conversations WHERE is_active = ?) AS active_conversations,
		(SELECT COUNT(*) FROM messages) AS messages,
		(SELECT COUNT(*) FROM user_facts) AS facts,
		(SELECT COUNT(*) FROM conversation_themes) AS themes,
		(SELECT COUNT(*) FROM conversation_summaries) AS summaries`), true)
	if err != nil {
		return storage.Stats{}, fmt.Errorf("failed to collect stats: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/models"
	"github.com/gw-labs/gw-messenger/internal/token"
)

// Error variables
var (
	ErrDuplicateUser = errors.New("username already exists")
)

// DefaultCommitEvery is how many writes a collection accumulates before the
// batch transaction is committed.
const DefaultCommitEvery = 20

// The users table carries a composite index so that login lookups by
// (username, user_id) stay fast; the messages table is left unindexed on
// purpose since it is insert-heavy.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id BIGINT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	auth_token TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS users_username_user_id_idx
ON users (username, user_id);

CREATE TABLE IF NOT EXISTS messages (
	msg_id BIGINT PRIMARY KEY,
	sender BIGINT NOT NULL,
	recipient BIGINT NOT NULL,
	msg_type TEXT NOT NULL,
	msg_text TEXT,
	img_height BIGINT,
	img_width BIGINT,
	url TEXT,
	vid_source TEXT,
	timestamp TEXT NOT NULL
);
`

// TokenCache caches auth tokens by user id. A failed Get is treated as a
// cache miss. Tokens are immutable once assigned, so cached entries never go
// stale.
type TokenCache interface {
	Get(ctx context.Context, userID int64) (string, error)
	Set(ctx context.Context, userID int64, authToken string) error
}

// Store owns the users and messages collections. All writes and in-process
// reads run inside a single long-lived batch transaction which is committed
// every commitEvery writes per collection, trading durability latency for
// write throughput. Ids are assigned from in-memory counters seeded by row
// counts at startup and never rolled back while the process lives.
type Store struct {
	db          *sqlx.DB
	commitEvery int64
	tokens      TokenCache

	mu           sync.Mutex // guards tx, counters and pending counts
	tx           *sqlx.Tx
	userCount    int64
	msgCount     int64
	pendingUsers int64
	pendingMsgs  int64
}

// Option configures a Store.
type Option func(*Store)

// WithCommitEvery overrides the per-collection batch size.
func WithCommitEvery(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.commitEvery = n
		}
	}
}

// WithTokenCache attaches an auth-token cache consulted by Authenticate.
func WithTokenCache(c TokenCache) Option {
	return func(s *Store) { s.tokens = c }
}

// New creates the schema if absent, seeds the id counters from the existing
// row counts and opens the first batch transaction.
func New(ctx context.Context, db *sqlx.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:          db,
		commitEvery: DefaultCommitEvery,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if err := db.GetContext(ctx, &s.userCount, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.GetContext(ctx, &s.msgCount, "SELECT COUNT(*) FROM messages"); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch transaction: %w", err)
	}
	s.tx = tx

	logger.Log.Infow("store initialized",
		"users", s.userCount,
		"messages", s.msgCount,
		"commit_every", s.commitEvery,
	)
	return s, nil
}

// txLocked returns the current batch transaction, opening a fresh one when
// the previous batch was discarded after an error. Callers must hold s.mu.
func (s *Store) txLocked(ctx context.Context) (*sqlx.Tx, error) {
	if s.tx == nil {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin batch transaction: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// discardLocked abandons the batch transaction after a failed statement. A
// failed statement aborts the whole transaction, so the pending uncommitted
// writes are lost, same as a crash before commit. The id counters keep their
// values; a fresh transaction is opened lazily on the next operation. Callers
// must hold s.mu.
func (s *Store) discardLocked() {
	if s.tx == nil {
		return
	}
	if err := s.tx.Rollback(); err != nil {
		logger.Log.Errorw("rollback batch transaction", "error", err)
	}
	s.tx = nil
	s.pendingUsers = 0
	s.pendingMsgs = 0
}

// CreateUser inserts a new user and returns its assigned id. The uniqueness
// check and the insert run under the store mutex, so two concurrent creations
// with the same username cannot both succeed. The id sequence advances on
// every successful insert regardless of commit timing.
func (s *Store) CreateUser(ctx context.Context, username, authToken string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.txLocked(ctx)
	if err != nil {
		return 0, err
	}

	const checkQuery = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := tx.GetContext(ctx, &exists, checkQuery, username); err != nil {
		s.discardLocked()
		return 0, err
	}
	if exists {
		return 0, ErrDuplicateUser
	}

	const query = `
		INSERT INTO users (user_id, username, auth_token)
		VALUES ($1, $2, $3)
	`

	userID := s.userCount
	_, err = tx.ExecContext(ctx, query, userID, username, authToken)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{userID, username},
		"error", err,
	)
	if err != nil {
		s.discardLocked()
		return 0, err
	}

	s.userCount++
	s.pendingUsers++
	if s.pendingUsers%s.commitEvery == 0 {
		if err := s.flushLocked(ctx); err != nil {
			return 0, err
		}
	}

	return userID, nil
}

// UserByCredentials returns the user matching the (username, authToken) pair
// exactly, or nil when either does not match.
func (s *Store) UserByCredentials(ctx context.Context, username, authToken string) (*models.UserDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `
		SELECT user_id, username, auth_token
		FROM users
		WHERE username = $1 AND auth_token = $2
		LIMIT 1
	`

	tx, err := s.txLocked(ctx)
	if err != nil {
		return nil, err
	}

	var user models.UserDB
	err = tx.GetContext(ctx, &user, query, username, authToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.discardLocked()
		return nil, err
	}

	return &user, nil
}

// Authenticate reports whether the authorization header carries the bearer
// token stored for userID. Malformed or absent headers and unknown user ids
// authenticate as false, not as errors. This is the sole authorization
// primitive; callers must invoke it before any user-scoped mutation or query.
func (s *Store) Authenticate(ctx context.Context, userID int64, authHeader string) (bool, error) {
	presented, err := token.FromAuthHeader(authHeader)
	if err != nil {
		return false, nil
	}

	if s.tokens != nil {
		if cached, err := s.tokens.Get(ctx, userID); err == nil {
			return cached == presented, nil
		}
	}

	s.mu.Lock()
	var stored string
	tx, err := s.txLocked(ctx)
	if err == nil {
		err = tx.GetContext(ctx, &stored, "SELECT auth_token FROM users WHERE user_id = $1", userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.discardLocked()
		}
	}
	s.mu.Unlock()

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if s.tokens != nil {
		if err := s.tokens.Set(ctx, userID, stored); err != nil {
			logger.Log.Errorw("failed to cache auth token", "user_id", userID, "error", err)
		}
	}

	return stored == presented, nil
}

// AppendMessage validates the content, stamps the timestamp and stores the
// message, returning the assigned id and timestamp. The caller is responsible
// for checking that the sender is the authenticated principal.
func (s *Store) AppendMessage(ctx context.Context, sender, recipient int64, content models.MessageContent) (int64, string, error) {
	if err := content.Validate(); err != nil {
		return 0, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.txLocked(ctx)
	if err != nil {
		return 0, "", err
	}

	msgID := s.msgCount
	timestamp := time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)

	m := models.MessageDB{
		MsgID:     msgID,
		Sender:    sender,
		Recipient: recipient,
		MsgType:   content.Type,
		Timestamp: timestamp,
	}
	switch content.Type {
	case models.MessageTypeText:
		m.MsgText = content.Text
	case models.MessageTypeImage:
		m.URL = content.URL
		m.ImgHeight = content.Height
		m.ImgWidth = content.Width
	case models.MessageTypeVideo:
		m.URL = content.URL
		m.VidSource = content.Source
	}

	const query = `
		INSERT INTO messages (msg_id, sender, recipient, msg_type, msg_text, img_height, img_width, url, vid_source, timestamp)
		VALUES (:msg_id, :sender, :recipient, :msg_type, :msg_text, :img_height, :img_width, :url, :vid_source, :timestamp)
	`

	_, err = tx.NamedExecContext(ctx, query, m)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{msgID, sender, recipient, content.Type},
		"error", err,
	)
	if err != nil {
		s.discardLocked()
		return 0, "", err
	}

	s.msgCount++
	s.pendingMsgs++
	if s.pendingMsgs%s.commitEvery == 0 {
		if err := s.flushLocked(ctx); err != nil {
			return 0, "", err
		}
	}

	return msgID, timestamp, nil
}

// MessagesByRecipient returns up to limit messages addressed to recipient in
// ascending id order, skipping the first start matches. A start past the end
// of the inbox or a non-positive limit yields an empty slice. The read is
// pure: repeated calls against an unchanged store return the same result.
func (s *Store) MessagesByRecipient(ctx context.Context, recipient, start, limit int64) ([]models.MessageDB, error) {
	if start < 0 || limit <= 0 {
		return []models.MessageDB{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `
		SELECT msg_id, sender, recipient, msg_type, msg_text, img_height, img_width, url, vid_source, timestamp
		FROM messages
		WHERE recipient = $1
		ORDER BY msg_id ASC
		OFFSET $2
		LIMIT $3
	`

	tx, err := s.txLocked(ctx)
	if err != nil {
		return nil, err
	}

	messages := []models.MessageDB{}
	if err := tx.SelectContext(ctx, &messages, query, recipient, start, limit); err != nil {
		s.discardLocked()
		return nil, err
	}

	return messages, nil
}

// Health runs a canary read against the connection pool, outside the batch
// transaction and the store mutex.
func (s *Store) Health(ctx context.Context) error {
	var canary int
	if err := s.db.GetContext(ctx, &canary, "SELECT 1"); err != nil {
		return err
	}
	if canary != 1 {
		return fmt.Errorf("unexpected canary value %d", canary)
	}
	return nil
}

// Flush forces immediate durability of all pending writes. It is idempotent:
// flushing with nothing pending commits an empty transaction and has no
// effect beyond durability.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// flushLocked commits the batch transaction and opens a new one. A commit
// failure loses the batch; the dead transaction is dropped so the next
// operation starts a fresh one instead of failing forever. Flushing with no
// open transaction is a no-op. Callers must hold s.mu.
func (s *Store) flushLocked(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}

	commitErr := s.tx.Commit()
	s.tx = nil
	if commitErr != nil {
		s.pendingUsers = 0
		s.pendingMsgs = 0
		return fmt.Errorf("commit batch transaction: %w", commitErr)
	}

	logger.Log.Infow("batch committed",
		"pending_users", s.pendingUsers,
		"pending_messages", s.pendingMsgs,
	)
	s.pendingUsers = 0
	s.pendingMsgs = 0

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Close commits any pending writes and releases the batch transaction. The
// store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit batch transaction: %w", err)
	}
	return nil
}

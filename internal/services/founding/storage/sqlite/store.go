package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/hearthhold/hearthhold/internal/platform/storage/sqlitemigrate"
	"github.com/hearthhold/hearthhold/internal/services/founding/storage"
	"github.com/hearthhold/hearthhold/internal/services/founding/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for founding workflow state.
type Store struct {
	sqlDB *sql.DB
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner func(dest ...any) error

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a founding SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// PutRequest atomically persists one founding request with its invitee
// set and any initial confirmations.
func (s *Store) PutRequest(ctx context.Context, record storage.FoundingRequestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeRequestRecord(record)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin founding request write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback founding request write: %v", cause, rollbackErr)
		}
		return cause
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO founding_requests (
		id, initiator_id, hold_name, status, quorum, created_at, expires_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		normalized.ID,
		normalized.InitiatorID,
		normalized.HoldName,
		normalized.Status,
		normalized.Quorum,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.ExpiresAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return rollbackWith(storage.ErrConflict)
		}
		return rollbackWith(fmt.Errorf("put founding request: %w", err))
	}

	for position, participantID := range normalized.Invited {
		if _, err := tx.ExecContext(ctx, `
	INSERT INTO founding_invitees (request_id, participant_id, position)
	VALUES (?, ?, ?)
	`, normalized.ID, participantID, position); err != nil {
			return rollbackWith(fmt.Errorf("put founding invitee: %w", err))
		}
	}

	for position, confirmation := range normalized.Confirmed {
		if _, err := tx.ExecContext(ctx, `
	INSERT INTO founding_confirmations (request_id, participant_id, confirmed_at, position)
	VALUES (?, ?, ?, ?)
	`, normalized.ID, confirmation.ParticipantID, toMillis(confirmation.ConfirmedAt), position); err != nil {
			return rollbackWith(fmt.Errorf("put founding confirmation: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit founding request write: %w", err)
	}
	return nil
}

// GetRequest loads one founding request with invitees and confirmations.
func (s *Store) GetRequest(ctx context.Context, requestID string) (storage.FoundingRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.FoundingRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.FoundingRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return storage.FoundingRequestRecord{}, fmt.Errorf("request id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, initiator_id, hold_name, status, quorum, created_at, expires_at, updated_at
FROM founding_requests
WHERE id = ?
`, requestID)
	record, err := scanRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.FoundingRequestRecord{}, storage.ErrNotFound
		}
		return storage.FoundingRequestRecord{}, fmt.Errorf("get founding request: %w", err)
	}
	if err := s.loadRequestRelations(ctx, s.sqlDB, &record); err != nil {
		return storage.FoundingRequestRecord{}, err
	}
	return record, nil
}

// AppendConfirmation records one confirmation and returns the new
// confirmed count. The insert and the count read share a transaction so
// concurrent confirmers observe distinct counts.
func (s *Store) AppendConfirmation(ctx context.Context, requestID string, participantID string, at time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	participantID = strings.TrimSpace(participantID)
	if requestID == "" {
		return 0, fmt.Errorf("request id is required")
	}
	if participantID == "" {
		return 0, fmt.Errorf("participant id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin confirmation write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback confirmation write: %v", cause, rollbackErr)
		}
		return cause
	}

	var status string
	if err := tx.QueryRowContext(ctx, `
SELECT status FROM founding_requests WHERE id = ?
`, requestID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, rollbackWith(storage.ErrNotFound)
		}
		return 0, rollbackWith(fmt.Errorf("read founding request status: %w", err))
	}
	if status != storage.RequestStatusPending {
		return 0, rollbackWith(storage.ErrConflict)
	}

	var position int
	if err := tx.QueryRowContext(ctx, `
SELECT COUNT(1) FROM founding_confirmations WHERE request_id = ?
`, requestID).Scan(&position); err != nil {
		return 0, rollbackWith(fmt.Errorf("count founding confirmations: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO founding_confirmations (request_id, participant_id, confirmed_at, position)
	VALUES (?, ?, ?, ?)
	`, requestID, participantID, toMillis(at), position); err != nil {
		if isUniqueConstraintError(err) {
			return 0, rollbackWith(storage.ErrConflict)
		}
		return 0, rollbackWith(fmt.Errorf("put founding confirmation: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
	UPDATE founding_requests SET updated_at = ? WHERE id = ?
	`, toMillis(at), requestID); err != nil {
		return 0, rollbackWith(fmt.Errorf("touch founding request: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit confirmation write: %w", err)
	}
	return position + 1, nil
}

// SetRequestStatus transitions one request between statuses with
// compare-and-swap semantics.
func (s *Store) SetRequestStatus(ctx context.Context, requestID string, from string, to string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return fmt.Errorf("request id is required")
	}
	if !isKnownStatus(from) || !isKnownStatus(to) {
		return fmt.Errorf("unknown founding request status %q -> %q", from, to)
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	UPDATE founding_requests
	SET status = ?, updated_at = ?
	WHERE id = ? AND status = ?
	`, to, toMillis(at), requestID, from)
	if err != nil {
		return fmt.Errorf("set founding request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set founding request status rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1) FROM founding_requests WHERE id = ?
`, requestID).Scan(&exists); err != nil {
		return fmt.Errorf("check founding request exists: %w", err)
	}
	if exists == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

// SetProvisionedBundle records the provisioned chat resources and
// materializes the hold with its confirmed members in one transaction.
func (s *Store) SetProvisionedBundle(ctx context.Context, requestID string, bundle storage.ProvisionedBundleRecord, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return fmt.Errorf("request id is required")
	}
	if strings.TrimSpace(bundle.NamespaceID) == "" {
		return fmt.Errorf("namespace id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin provisioned bundle write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback provisioned bundle write: %v", cause, rollbackErr)
		}
		return cause
	}

	var holdName string
	if err := tx.QueryRowContext(ctx, `
SELECT hold_name FROM founding_requests WHERE id = ?
`, requestID).Scan(&holdName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rollbackWith(storage.ErrNotFound)
		}
		return rollbackWith(fmt.Errorf("read founding request: %w", err))
	}

	for position, channel := range bundle.Channels {
		if _, err := tx.ExecContext(ctx, `
	INSERT INTO founding_channels (request_id, channel_key, channel_kind, channel_id, position)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(request_id, channel_key) DO UPDATE SET
		channel_kind = excluded.channel_kind,
		channel_id = excluded.channel_id,
		position = excluded.position
	`, requestID, channel.Key, channel.Kind, channel.ChannelID, position); err != nil {
			return rollbackWith(fmt.Errorf("put founding channel: %w", err))
		}
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO holds (id, request_id, name, namespace_id, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(request_id) DO UPDATE SET
		namespace_id = excluded.namespace_id
	`, bundle.NamespaceID, requestID, holdName, bundle.NamespaceID, toMillis(at)); err != nil {
		return rollbackWith(fmt.Errorf("put hold: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT OR IGNORE INTO hold_members (hold_id, participant_id, joined_at)
	SELECT ?, participant_id, ?
	FROM founding_confirmations
	WHERE request_id = ?
	`, bundle.NamespaceID, toMillis(at), requestID); err != nil {
		return rollbackWith(fmt.Errorf("put hold members: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit provisioned bundle write: %w", err)
	}
	return nil
}

// ListPendingPastExpiry lists pending requests whose window has lapsed,
// oldest expiry first.
func (s *Store) ListPendingPastExpiry(ctx context.Context, now time.Time, limit int) ([]storage.FoundingRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, initiator_id, hold_name, status, quorum, created_at, expires_at, updated_at
FROM founding_requests
WHERE status = ? AND expires_at <= ?
ORDER BY expires_at ASC, id ASC
LIMIT ?
`, storage.RequestStatusPending, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue founding requests: %w", err)
	}
	defer rows.Close()

	var records []storage.FoundingRequestRecord
	for rows.Next() {
		record, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan founding request row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate founding request rows: %w", err)
	}
	for i := range records {
		if err := s.loadRequestRelations(ctx, s.sqlDB, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// ListPendingRequests lists pending requests regardless of expiry,
// oldest first, for re-arming expiry timers after a restart.
func (s *Store) ListPendingRequests(ctx context.Context, limit int) ([]storage.FoundingRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, initiator_id, hold_name, status, quorum, created_at, expires_at, updated_at
FROM founding_requests
WHERE status = ?
ORDER BY expires_at ASC, id ASC
LIMIT ?
`, storage.RequestStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending founding requests: %w", err)
	}
	defer rows.Close()

	var records []storage.FoundingRequestRecord
	for rows.Next() {
		record, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan founding request row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate founding request rows: %w", err)
	}
	for i := range records {
		if err := s.loadRequestRelations(ctx, s.sqlDB, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// IsHoldMember reports whether a participant belongs to any founded hold.
func (s *Store) IsHoldMember(ctx context.Context, participantID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return false, fmt.Errorf("participant id is required")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1) FROM hold_members WHERE participant_id = ?
`, participantID).Scan(&count); err != nil {
		return false, fmt.Errorf("check hold membership: %w", err)
	}
	return count > 0, nil
}

// PutNotification persists one participant inbox row. A duplicate
// recipient and dedupe key pair returns ErrConflict.
func (s *Store) PutNotification(ctx context.Context, record storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeNotificationRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO founding_notifications (
		id, recipient_id, message_type, body, dedupe_key, created_at
	) VALUES (?, ?, ?, ?, ?, ?)
	`,
		normalized.ID,
		normalized.RecipientID,
		normalized.MessageType,
		normalized.Body,
		normalized.DedupeKey,
		toMillis(normalized.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put founding notification: %w", err)
	}
	return nil
}

// ListNotificationsByRecipient lists one recipient inbox newest-first.
func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientID string, limit int) ([]storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, fmt.Errorf("recipient id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient_id, message_type, body, dedupe_key, created_at
FROM founding_notifications
WHERE recipient_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list founding notifications: %w", err)
	}
	defer rows.Close()

	var records []storage.NotificationRecord
	for rows.Next() {
		var record storage.NotificationRecord
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.RecipientID,
			&record.MessageType,
			&record.Body,
			&record.DedupeKey,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan founding notification row: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate founding notification rows: %w", err)
	}
	return records, nil
}

func (s *Store) loadRequestRelations(ctx context.Context, querier sqlQuerier, record *storage.FoundingRequestRecord) error {
	inviteeRows, err := querier.QueryContext(ctx, `
SELECT participant_id
FROM founding_invitees
WHERE request_id = ?
ORDER BY position ASC
`, record.ID)
	if err != nil {
		return fmt.Errorf("list founding invitees: %w", err)
	}
	defer inviteeRows.Close()
	for inviteeRows.Next() {
		var participantID string
		if err := inviteeRows.Scan(&participantID); err != nil {
			return fmt.Errorf("scan founding invitee row: %w", err)
		}
		record.Invited = append(record.Invited, participantID)
	}
	if err := inviteeRows.Err(); err != nil {
		return fmt.Errorf("iterate founding invitee rows: %w", err)
	}

	confirmationRows, err := querier.QueryContext(ctx, `
SELECT participant_id, confirmed_at
FROM founding_confirmations
WHERE request_id = ?
ORDER BY position ASC
`, record.ID)
	if err != nil {
		return fmt.Errorf("list founding confirmations: %w", err)
	}
	defer confirmationRows.Close()
	for confirmationRows.Next() {
		var confirmation storage.ConfirmationRecord
		var confirmedAt int64
		if err := confirmationRows.Scan(&confirmation.ParticipantID, &confirmedAt); err != nil {
			return fmt.Errorf("scan founding confirmation row: %w", err)
		}
		confirmation.ConfirmedAt = fromMillis(confirmedAt)
		record.Confirmed = append(record.Confirmed, confirmation)
	}
	if err := confirmationRows.Err(); err != nil {
		return fmt.Errorf("iterate founding confirmation rows: %w", err)
	}
	return nil
}

func normalizeRequestRecord(record storage.FoundingRequestRecord) (storage.FoundingRequestRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.InitiatorID = strings.TrimSpace(record.InitiatorID)
	record.HoldName = strings.TrimSpace(record.HoldName)
	if record.ID == "" {
		return storage.FoundingRequestRecord{}, fmt.Errorf("request id is required")
	}
	if record.InitiatorID == "" {
		return storage.FoundingRequestRecord{}, fmt.Errorf("initiator id is required")
	}
	if record.HoldName == "" {
		return storage.FoundingRequestRecord{}, fmt.Errorf("hold name is required")
	}
	if !isKnownStatus(record.Status) {
		return storage.FoundingRequestRecord{}, fmt.Errorf("unknown founding request status %q", record.Status)
	}
	if record.Quorum <= 0 {
		return storage.FoundingRequestRecord{}, fmt.Errorf("quorum must be greater than zero")
	}
	if record.CreatedAt.IsZero() || record.ExpiresAt.IsZero() {
		return storage.FoundingRequestRecord{}, fmt.Errorf("request timestamps are required")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	return record, nil
}

func normalizeNotificationRecord(record storage.NotificationRecord) (storage.NotificationRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.RecipientID = strings.TrimSpace(record.RecipientID)
	record.MessageType = strings.TrimSpace(record.MessageType)
	record.DedupeKey = strings.TrimSpace(record.DedupeKey)
	if record.ID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	if record.RecipientID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient id is required")
	}
	if record.MessageType == "" {
		return storage.NotificationRecord{}, fmt.Errorf("message type is required")
	}
	if record.DedupeKey == "" {
		return storage.NotificationRecord{}, fmt.Errorf("dedupe key is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("created at is required")
	}
	return record, nil
}

func scanRequest(scan scanner) (storage.FoundingRequestRecord, error) {
	var record storage.FoundingRequestRecord
	var createdAt int64
	var expiresAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.InitiatorID,
		&record.HoldName,
		&record.Status,
		&record.Quorum,
		&createdAt,
		&expiresAt,
		&updatedAt,
	); err != nil {
		return storage.FoundingRequestRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.ExpiresAt = fromMillis(expiresAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func isKnownStatus(status string) bool {
	switch status {
	case storage.RequestStatusPending,
		storage.RequestStatusComplete,
		storage.RequestStatusCancelled,
		storage.RequestStatusExpired,
		storage.RequestStatusProvisionFailed:
		return true
	}
	return false
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

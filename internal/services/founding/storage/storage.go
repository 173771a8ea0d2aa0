// Package storage defines the persistence contracts for founding
// workflow state. Implementations live in subpackages; the domain layer
// consumes these through an adapter so storage types never leak into
// workflow logic.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested founding record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write lost a compare-and-swap or violated
	// a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// Request status labels as persisted.
const (
	RequestStatusPending         = "PENDING"
	RequestStatusComplete        = "COMPLETE"
	RequestStatusCancelled       = "CANCELLED"
	RequestStatusExpired         = "EXPIRED"
	RequestStatusProvisionFailed = "PROVISION_FAILED"
)

// ConfirmationRecord stores one participant confirmation.
type ConfirmationRecord struct {
	ParticipantID string
	ConfirmedAt   time.Time
}

// FoundingRequestRecord stores one founding request with its invitee
// set and accumulated confirmations.
type FoundingRequestRecord struct {
	ID          string
	InitiatorID string
	HoldName    string
	Status      string
	Quorum      int
	Invited     []string
	Confirmed   []ConfirmationRecord
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UpdatedAt   time.Time
}

// ProvisionedChannelRecord stores one provisioned channel.
type ProvisionedChannelRecord struct {
	Key       string
	Kind      string
	ChannelID string
}

// ProvisionedBundleRecord stores the chat resources created for a
// completed founding request.
type ProvisionedBundleRecord struct {
	NamespaceID string
	Channels    []ProvisionedChannelRecord
}

// RequestStore persists founding request lifecycle state. Status
// transitions use compare-and-swap semantics and return ErrConflict
// when the stored status differs from the expected one.
type RequestStore interface {
	PutRequest(ctx context.Context, record FoundingRequestRecord) error
	GetRequest(ctx context.Context, requestID string) (FoundingRequestRecord, error)
	// AppendConfirmation records one confirmation and returns the new
	// confirmed count. ErrConflict when the participant already
	// confirmed or the request is not pending.
	AppendConfirmation(ctx context.Context, requestID string, participantID string, at time.Time) (int, error)
	SetRequestStatus(ctx context.Context, requestID string, from string, to string, at time.Time) error
	// SetProvisionedBundle records the bundle and materializes the hold
	// with its founding members in one transaction.
	SetProvisionedBundle(ctx context.Context, requestID string, bundle ProvisionedBundleRecord, at time.Time) error
	ListPendingPastExpiry(ctx context.Context, now time.Time, limit int) ([]FoundingRequestRecord, error)
	// ListPendingRequests lists pending requests regardless of expiry,
	// for re-arming timers after a restart.
	ListPendingRequests(ctx context.Context, limit int) ([]FoundingRequestRecord, error)
}

// HoldStore answers membership questions about founded holds.
type HoldStore interface {
	IsHoldMember(ctx context.Context, participantID string) (bool, error)
}

// NotificationRecord stores one participant inbox item.
type NotificationRecord struct {
	ID          string
	RecipientID string
	MessageType string
	Body        string
	DedupeKey   string
	CreatedAt   time.Time
}

// NotificationStore persists the participant notification inbox.
// PutNotification returns ErrConflict when a record with the same
// recipient and dedupe key already exists.
type NotificationStore interface {
	PutNotification(ctx context.Context, record NotificationRecord) error
	ListNotificationsByRecipient(ctx context.Context, recipientID string, limit int) ([]NotificationRecord, error)
}

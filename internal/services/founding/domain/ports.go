package domain

import (
	"context"
	"time"
)

// Store is the persistence boundary for founding request lifecycle state.
// Implementations must provide compare-and-swap semantics for status
// transitions so correctness never depends on in-process memory.
type Store interface {
	// PutRequest persists a new founding request with its invitee set.
	PutRequest(ctx context.Context, request Request) error
	// GetRequest returns one request or ErrNotFound.
	GetRequest(ctx context.Context, requestID string) (Request, error)
	// AppendConfirmation records one confirmation and returns the new
	// confirmed count. It returns ErrConflict when the participant is
	// already confirmed or the request is no longer pending.
	AppendConfirmation(ctx context.Context, requestID string, participantID string, at time.Time) (int, error)
	// SetStatus transitions the request from one status to another with
	// compare-and-swap semantics; ErrConflict when the stored status
	// differs from the expected one.
	SetStatus(ctx context.Context, requestID string, from Status, to Status, at time.Time) error
	// SetProvisionedBundle durably records the provisioned resource
	// bundle and the resulting hold membership for a completed request.
	SetProvisionedBundle(ctx context.Context, requestID string, bundle ProvisionedBundle, at time.Time) error
	// ListPendingPastExpiry returns pending requests whose expiry has
	// passed, for the reconciliation sweep.
	ListPendingPastExpiry(ctx context.Context, now time.Time, limit int) ([]Request, error)
}

// Memberships answers whether a participant already belongs to a hold.
// The founding pre-checks consult it before accepting an initiator or
// invitee; a nil checker disables the restriction.
type Memberships interface {
	IsMember(ctx context.Context, participantID string) (bool, error)
}

// ChannelKind distinguishes provisioned channel types.
type ChannelKind string

const (
	// ChannelKindText is a message channel.
	ChannelKindText ChannelKind = "text"
	// ChannelKindVoice is a voice channel.
	ChannelKindVoice ChannelKind = "voice"
)

// ChannelSpec describes one channel to provision under a hold namespace.
type ChannelSpec struct {
	Key  string
	Kind ChannelKind
}

// DefaultChannelBundle is the fixed channel set provisioned for every hold.
func DefaultChannelBundle() []ChannelSpec {
	return []ChannelSpec{
		{Key: "hall", Kind: ChannelKindText},
		{Key: "hearth", Kind: ChannelKindVoice},
		{Key: "den", Kind: ChannelKindVoice},
		{Key: "gifts", Kind: ChannelKindText},
		{Key: "events", Kind: ChannelKindText},
	}
}

// ProvisionedChannel identifies one provisioned channel.
type ProvisionedChannel struct {
	Key       string
	Kind      ChannelKind
	ChannelID string
}

// ProvisionedBundle is the namespace plus channel bundle created when a
// founding request completes.
type ProvisionedBundle struct {
	NamespaceID string
	Channels    []ProvisionedChannel
}

// Provisioner creates and deletes hold resources on the chat platform.
type Provisioner interface {
	CreateNamespace(ctx context.Context, name string) (string, error)
	DeleteNamespace(ctx context.Context, namespaceID string) error
	CreateChannel(ctx context.Context, namespaceID string, spec ChannelSpec) (string, error)
	DeleteChannel(ctx context.Context, channelID string) error
}

// Scheduler arms and disarms per-request expiry timers. Disarming is an
// optimization: ExpireIfDue re-checks persisted status, so a timer that
// fires late or is never disarmed cannot corrupt state.
type Scheduler interface {
	Arm(requestID string, at time.Time)
	Disarm(requestID string)
}

// InviteNotice carries one invitation message.
type InviteNotice struct {
	RequestID     string
	ParticipantID string
	InitiatorID   string
	HoldName      string
	Grant         string
	ExpiresAt     time.Time
}

// ProgressNotice reports confirmation progress to the initiator.
type ProgressNotice struct {
	RequestID      string
	InitiatorID    string
	HoldName       string
	ConfirmedCount int
	Quorum         int
}

// CompletedNotice announces a successful founding.
type CompletedNotice struct {
	RequestID   string
	InitiatorID string
	HoldName    string
	Bundle      ProvisionedBundle
}

// CancelledNotice announces a declined founding.
type CancelledNotice struct {
	RequestID   string
	InitiatorID string
	HoldName    string
	DeclinerID  string
}

// ExpiredNotice announces a lapsed founding window.
type ExpiredNotice struct {
	RequestID   string
	InitiatorID string
	HoldName    string
	Unconfirmed []string
}

// ProvisionFailedNotice reports a failed provisioning saga to the initiator.
type ProvisionFailedNotice struct {
	RequestID   string
	InitiatorID string
	HoldName    string
	Reason      string
}

// Dispatcher delivers participant-facing notifications. Calls are
// fire-and-forget: implementations log failures and never block or fail
// a state transition.
type Dispatcher interface {
	InviteIssued(ctx context.Context, notice InviteNotice)
	Progress(ctx context.Context, notice ProgressNotice)
	Completed(ctx context.Context, notice CompletedNotice)
	Cancelled(ctx context.Context, notice CancelledNotice)
	Expired(ctx context.Context, notice ExpiredNotice)
	ProvisionFailed(ctx context.Context, notice ProvisionFailedNotice)
}

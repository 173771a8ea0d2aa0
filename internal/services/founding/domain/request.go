// Package domain implements the hold founding workflow: invitation
// tracking, quorum confirmation, expiry, and resource provisioning.
package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hearthhold/hearthhold/internal/platform/errors"
	"github.com/hearthhold/hearthhold/internal/platform/id"
)

const (
	// DefaultQuorum is the confirmation count required to complete a
	// founding request. Requests with fewer participants than the
	// constant require everyone.
	DefaultQuorum = 4

	// MinQuorum is the smallest meaningful quorum: the initiator alone
	// cannot found a hold.
	MinQuorum = 2

	// DefaultWindow is how long a founding request stays open.
	DefaultWindow = 5 * time.Minute

	minHoldNameLength = 3
	maxHoldNameLength = 32
)

// Status represents the lifecycle status of a founding request.
type Status int

const (
	// StatusUnspecified represents an invalid request status.
	StatusUnspecified Status = iota
	// StatusPending indicates the request is collecting confirmations.
	StatusPending
	// StatusComplete indicates quorum was reached and resources exist.
	StatusComplete
	// StatusCancelled indicates an invitee declined the founding.
	StatusCancelled
	// StatusExpired indicates the confirmation window lapsed.
	StatusExpired
	// StatusProvisionFailed indicates provisioning failed after quorum;
	// the request is terminal and requires operator reconciliation.
	StatusProvisionFailed
)

// Terminal reports whether no further transitions are valid from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusCancelled, StatusExpired, StatusProvisionFailed:
		return true
	default:
		return false
	}
}

// StatusLabel returns the string label for a request status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "PENDING"
	case StatusComplete:
		return "COMPLETE"
	case StatusCancelled:
		return "CANCELLED"
	case StatusExpired:
		return "EXPIRED"
	case StatusProvisionFailed:
		return "PROVISION_FAILED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel converts a status label to a Status value.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return StatusPending
	case "COMPLETE":
		return StatusComplete
	case "CANCELLED":
		return StatusCancelled
	case "EXPIRED":
		return StatusExpired
	case "PROVISION_FAILED":
		return StatusProvisionFailed
	default:
		return StatusUnspecified
	}
}

// Request represents one attempt to found a hold.
type Request struct {
	ID          string
	InitiatorID string
	HoldName    string
	Invited     []string
	Confirmed   []string
	Status      Status
	Quorum      int
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UpdatedAt   time.Time
}

// IsInvited reports whether participantID may confirm or decline the request.
func (r Request) IsInvited(participantID string) bool {
	for _, invited := range r.Invited {
		if invited == participantID {
			return true
		}
	}
	return false
}

// HasConfirmed reports whether participantID already confirmed the request.
func (r Request) HasConfirmed(participantID string) bool {
	for _, confirmed := range r.Confirmed {
		if confirmed == participantID {
			return true
		}
	}
	return false
}

// PendingInvitees returns invitees that have not confirmed yet.
func (r Request) PendingInvitees() []string {
	var pending []string
	for _, invited := range r.Invited {
		if !r.HasConfirmed(invited) {
			pending = append(pending, invited)
		}
	}
	return pending
}

// CreateRequestInput describes the metadata needed to start a founding request.
type CreateRequestInput struct {
	InitiatorID string
	HoldName    string
	Invited     []string
}

// CreateRequest validates input and builds a pending request with the
// initiator pre-confirmed and a generated ID.
func CreateRequest(input CreateRequestInput, now func() time.Time, idGenerator func() (string, error)) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateRequestInput(input)
	if err != nil {
		return Request{}, err
	}

	requestID, err := idGenerator()
	if err != nil {
		return Request{}, fmt.Errorf("generate request id: %w", err)
	}

	createdAt := now().UTC()
	return Request{
		ID:          requestID,
		InitiatorID: normalized.InitiatorID,
		HoldName:    normalized.HoldName,
		Invited:     normalized.Invited,
		Confirmed:   []string{normalized.InitiatorID},
		Status:      StatusPending,
		Quorum:      quorumFor(len(normalized.Invited)),
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(DefaultWindow),
		UpdatedAt:   createdAt,
	}, nil
}

// NormalizeCreateRequestInput trims and validates founding request metadata.
func NormalizeCreateRequestInput(input CreateRequestInput) (CreateRequestInput, error) {
	input.InitiatorID = strings.TrimSpace(input.InitiatorID)
	if input.InitiatorID == "" {
		return CreateRequestInput{}, ErrEmptyInitiatorID
	}

	input.HoldName = strings.TrimSpace(input.HoldName)
	if err := validateHoldName(input.HoldName); err != nil {
		return CreateRequestInput{}, err
	}

	seen := make(map[string]struct{}, len(input.Invited))
	invited := make([]string, 0, len(input.Invited))
	for _, raw := range input.Invited {
		participantID := strings.TrimSpace(raw)
		if participantID == "" {
			continue
		}
		if participantID == input.InitiatorID {
			return CreateRequestInput{}, ErrInitiatorInvited
		}
		if _, dup := seen[participantID]; dup {
			continue
		}
		seen[participantID] = struct{}{}
		invited = append(invited, participantID)
	}
	if len(invited) == 0 {
		return CreateRequestInput{}, ErrNoInvitees
	}
	input.Invited = invited
	return input, nil
}

// quorumFor applies the fixed-quorum policy: DefaultQuorum confirmations,
// clamped to the participant count when fewer people are involved, and
// never below MinQuorum.
func quorumFor(invitedCount int) int {
	quorum := DefaultQuorum
	if participants := invitedCount + 1; participants < quorum {
		quorum = participants
	}
	if quorum < MinQuorum {
		quorum = MinQuorum
	}
	return quorum
}

func validateHoldName(name string) error {
	if len(name) < minHoldNameLength || len(name) > maxHoldNameLength {
		return apperrors.WithMetadata(apperrors.CodeFoundingNameInvalid,
			"hold name length is out of range",
			map[string]string{"Min": fmt.Sprint(minHoldNameLength), "Max": fmt.Sprint(maxHoldNameLength)})
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
		case r == ' ', r == '\'', r == '-':
		default:
			return apperrors.WithMetadata(apperrors.CodeFoundingNameInvalid,
				"hold name contains unsupported characters",
				map[string]string{"Character": string(r)})
		}
	}
	if !hasLetter {
		return apperrors.New(apperrors.CodeFoundingNameInvalid, "hold name must contain a letter")
	}
	return nil
}

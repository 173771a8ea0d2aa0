package domain

import (
	apperrors "github.com/hearthhold/hearthhold/internal/platform/errors"
)

var (
	// ErrEmptyInitiatorID indicates a missing initiator identity.
	ErrEmptyInitiatorID = apperrors.New(apperrors.CodeFoundingEmptyInitiatorID, "initiator id is required")
	// ErrEmptyParticipantID indicates a missing participant identity.
	ErrEmptyParticipantID = apperrors.New(apperrors.CodeFoundingEmptyParticipantID, "participant id is required")
	// ErrEmptyRequestID indicates a missing request identity.
	ErrEmptyRequestID = apperrors.New(apperrors.CodeFoundingEmptyRequestID, "request id is required")
	// ErrNoInvitees indicates a founding attempt without co-founders.
	ErrNoInvitees = apperrors.New(apperrors.CodeFoundingNoInvitees, "at least one invitee is required")
	// ErrInitiatorInvited indicates the initiator appeared in the invitee set.
	ErrInitiatorInvited = apperrors.New(apperrors.CodeFoundingInitiatorInvited, "initiator cannot be invited")
	// ErrNotFound indicates an unknown founding request.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "founding request not found")
	// ErrNotInvited indicates the participant is not part of the request.
	ErrNotInvited = apperrors.New(apperrors.CodeFoundingNotInvited, "participant is not invited")
	// ErrAlreadyTerminal indicates the request already reached a terminal status.
	ErrAlreadyTerminal = apperrors.New(apperrors.CodeFoundingAlreadyTerminal, "founding request is already settled")
	// ErrConflict indicates a concurrent transition won the race.
	ErrConflict = apperrors.New(apperrors.CodeConflict, "founding request transition conflict")
	// ErrMemberInHold indicates a participant already belongs to a hold.
	ErrMemberInHold = apperrors.New(apperrors.CodeFoundingMemberInHold, "participant already belongs to a hold")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = apperrors.New(apperrors.CodeUnknown, "founding store is not configured")
	// ErrProvisionerNotConfigured indicates the service is missing provisioning wiring.
	ErrProvisionerNotConfigured = apperrors.New(apperrors.CodeUnknown, "provisioner is not configured")
)

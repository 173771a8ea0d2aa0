// Package errors provides structured domain error handling.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Founding validation errors
	CodeFoundingNameInvalid        Code = "FOUNDING_NAME_INVALID"
	CodeFoundingEmptyInitiatorID   Code = "FOUNDING_EMPTY_INITIATOR_ID"
	CodeFoundingEmptyParticipantID Code = "FOUNDING_EMPTY_PARTICIPANT_ID"
	CodeFoundingEmptyRequestID     Code = "FOUNDING_EMPTY_REQUEST_ID"
	CodeFoundingNoInvitees         Code = "FOUNDING_NO_INVITEES"
	CodeFoundingInitiatorInvited   Code = "FOUNDING_INITIATOR_INVITED"
	CodeFoundingMemberInHold       Code = "FOUNDING_MEMBER_ALREADY_IN_HOLD"

	// Founding protocol errors
	CodeFoundingNotInvited      Code = "FOUNDING_NOT_INVITED"
	CodeFoundingAlreadyTerminal Code = "FOUNDING_ALREADY_TERMINAL"

	// Invite grant errors
	CodeGrantInvalid  Code = "GRANT_INVALID"
	CodeGrantExpired  Code = "GRANT_EXPIRED"
	CodeGrantMismatch Code = "GRANT_MISMATCH"

	// Provisioning errors
	CodeProvisionFailed             Code = "PROVISION_FAILED"
	CodeProvisionRollbackIncomplete Code = "PROVISION_ROLLBACK_INCOMPLETE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeFoundingNameInvalid,
		CodeFoundingEmptyInitiatorID,
		CodeFoundingEmptyParticipantID,
		CodeFoundingEmptyRequestID,
		CodeFoundingNoInvitees,
		CodeFoundingInitiatorInvited,
		CodeGrantInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeFoundingMemberInHold,
		CodeFoundingAlreadyTerminal,
		CodeGrantExpired:
		return codes.FailedPrecondition

	// PermissionDenied - the caller is not a protocol participant
	case CodeFoundingNotInvited,
		CodeGrantMismatch:
		return codes.PermissionDenied

	// Aborted - concurrent transition won the race
	case CodeConflict:
		return codes.Aborted

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/hearthhold/hearthhold/internal/platform/id"
)

// sweepBatchSize bounds how many overdue requests one sweep pass loads.
const sweepBatchSize = 100

// Progress reports the confirmation state of a request after a Confirm call.
type Progress struct {
	RequestID      string
	Status         Status
	ConfirmedCount int
	Quorum         int
}

// StartFoundingInput describes one founding attempt.
type StartFoundingInput struct {
	InitiatorID string
	HoldName    string
	Invited     []string
}

// Service orchestrates founding request lifecycle behavior.
type Service struct {
	store       Store
	provisioner Provisioner
	dispatcher  Dispatcher
	scheduler   Scheduler
	memberships Memberships
	signer      *GrantSigner
	clock       func() time.Time
	newID       func() (string, error)
	locks       *requestLocks
}

// ServiceDeps wires service collaborators. Store and Provisioner are
// required; the rest default to no-op or stdlib implementations.
type ServiceDeps struct {
	Store       Store
	Provisioner Provisioner
	Dispatcher  Dispatcher
	Scheduler   Scheduler
	Memberships Memberships
	Signer      *GrantSigner
	Clock       func() time.Time
	NewID       func() (string, error)
}

// NewService constructs the founding workflow service.
func NewService(deps ServiceDeps) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = id.NewID
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = noopScheduler{}
	}
	return &Service{
		store:       deps.Store,
		provisioner: deps.Provisioner,
		dispatcher:  dispatcher,
		scheduler:   scheduler,
		memberships: deps.Memberships,
		signer:      deps.Signer,
		clock:       clock,
		newID:       newID,
		locks:       newRequestLocks(),
	}
}

// StartFounding validates and persists a new founding request, arms its
// expiry timer, and dispatches one invitation per invitee.
func (s *Service) StartFounding(ctx context.Context, input StartFoundingInput) (Request, error) {
	if s == nil || s.store == nil {
		return Request{}, ErrStoreNotConfigured
	}

	request, err := CreateRequest(CreateRequestInput{
		InitiatorID: input.InitiatorID,
		HoldName:    input.HoldName,
		Invited:     input.Invited,
	}, s.clock, s.newID)
	if err != nil {
		return Request{}, err
	}

	if err := s.checkMemberships(ctx, request); err != nil {
		return Request{}, err
	}

	if err := s.store.PutRequest(ctx, request); err != nil {
		return Request{}, err
	}

	s.scheduler.Arm(request.ID, request.ExpiresAt)

	for _, participantID := range request.Invited {
		notice := InviteNotice{
			RequestID:     request.ID,
			ParticipantID: participantID,
			InitiatorID:   request.InitiatorID,
			HoldName:      request.HoldName,
			ExpiresAt:     request.ExpiresAt,
		}
		if s.signer != nil {
			grant, grantErr := s.signer.Issue(request.ID, participantID, request.HoldName)
			if grantErr != nil {
				log.Printf("issue founding grant request_id=%s participant_id=%s err=%v", request.ID, participantID, grantErr)
			} else {
				notice.Grant = grant
			}
		}
		s.dispatcher.InviteIssued(ctx, notice)
	}

	return request, nil
}

// Confirm applies one participant confirmation. Duplicate confirmations
// are idempotent no-ops. When the confirmation reaches quorum, the
// provisioning saga runs before Confirm returns.
func (s *Service) Confirm(ctx context.Context, requestID string, participantID string) (Progress, error) {
	if s == nil || s.store == nil {
		return Progress{}, ErrStoreNotConfigured
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Progress{}, ErrEmptyRequestID
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return Progress{}, ErrEmptyParticipantID
	}

	unlock := s.locks.lock(requestID)
	finalize := false
	var request Request

	progress, err := func() (Progress, error) {
		defer func() {
			if !finalize {
				unlock()
			}
		}()

		var err error
		request, err = s.store.GetRequest(ctx, requestID)
		if err != nil {
			return Progress{}, err
		}
		if request.Status.Terminal() || s.locks.isFinalizing(requestID) {
			return Progress{}, ErrAlreadyTerminal
		}
		if participantID != request.InitiatorID && !request.IsInvited(participantID) {
			return Progress{}, ErrNotInvited
		}
		if request.HasConfirmed(participantID) {
			// Duplicate confirmation: succeed without side effects.
			return Progress{
				RequestID:      request.ID,
				Status:         request.Status,
				ConfirmedCount: len(request.Confirmed),
				Quorum:         request.Quorum,
			}, nil
		}

		count, err := s.store.AppendConfirmation(ctx, requestID, participantID, s.nowUTC())
		if err != nil {
			if errors.Is(err, ErrConflict) {
				// The store is authoritative: a concurrent writer
				// already recorded this participant.
				return Progress{
					RequestID:      request.ID,
					Status:         request.Status,
					ConfirmedCount: len(request.Confirmed),
					Quorum:         request.Quorum,
				}, nil
			}
			return Progress{}, err
		}

		if count >= request.Quorum {
			// The winning confirmation runs the saga after releasing
			// the request lock; the finalizing marker keeps a second
			// invocation out.
			finalize = s.locks.beginFinalize(requestID)
			if !finalize {
				return Progress{}, ErrAlreadyTerminal
			}
			unlock()
			return Progress{
				RequestID:      request.ID,
				Status:         request.Status,
				ConfirmedCount: count,
				Quorum:         request.Quorum,
			}, nil
		}

		// Progress notifications go to the initiator only, in commit
		// order because they are emitted under the request lock.
		s.dispatcher.Progress(ctx, ProgressNotice{
			RequestID:      request.ID,
			InitiatorID:    request.InitiatorID,
			HoldName:       request.HoldName,
			ConfirmedCount: count,
			Quorum:         request.Quorum,
		})
		return Progress{
			RequestID:      request.ID,
			Status:         request.Status,
			ConfirmedCount: count,
			Quorum:         request.Quorum,
		}, nil
	}()
	if err != nil || !finalize {
		return progress, err
	}

	defer s.locks.endFinalize(requestID)
	// A dropped caller connection must not strand the request pending
	// with live resources, so the saga never sees the caller's
	// cancellation.
	status, err := s.runProvisioningSaga(context.WithoutCancel(ctx), request)
	progress.Status = status
	return progress, err
}

// Decline cancels the whole founding request: co-founder agreement is
// all-or-nothing, so a single decline ends the attempt.
func (s *Service) Decline(ctx context.Context, requestID string, participantID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ErrEmptyRequestID
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return ErrEmptyParticipantID
	}

	unlock := s.locks.lock(requestID)
	defer unlock()

	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Status.Terminal() || s.locks.isFinalizing(requestID) {
		return ErrAlreadyTerminal
	}
	if !request.IsInvited(participantID) {
		return ErrNotInvited
	}

	if err := s.store.SetStatus(ctx, requestID, StatusPending, StatusCancelled, s.nowUTC()); err != nil {
		return err
	}
	s.scheduler.Disarm(requestID)

	s.dispatcher.Cancelled(ctx, CancelledNotice{
		RequestID:   request.ID,
		InitiatorID: request.InitiatorID,
		HoldName:    request.HoldName,
		DeclinerID:  participantID,
	})
	log.Printf("founding declined request_id=%s decliner_id=%s", request.ID, participantID)
	return nil
}

// ExpireIfDue transitions an overdue pending request to EXPIRED. It is a
// no-op when another terminal transition already won the race or a
// provisioning saga is in flight.
func (s *Service) ExpireIfDue(ctx context.Context, requestID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ErrEmptyRequestID
	}

	unlock := s.locks.lock(requestID)
	defer unlock()

	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if request.Status.Terminal() || s.locks.isFinalizing(requestID) {
		return nil
	}
	if request.ExpiresAt.After(s.nowUTC()) {
		return nil
	}

	if err := s.store.SetStatus(ctx, requestID, StatusPending, StatusExpired, s.nowUTC()); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return err
	}

	s.dispatcher.Expired(ctx, ExpiredNotice{
		RequestID:   request.ID,
		InitiatorID: request.InitiatorID,
		HoldName:    request.HoldName,
		Unconfirmed: request.PendingInvitees(),
	})
	log.Printf("founding expired request_id=%s hold_name=%q", request.ID, request.HoldName)
	return nil
}

// RunExpirySweep expires every pending request past its window and
// returns how many were processed. Per-request failures are logged and
// do not abort the sweep; lost in-memory timers are reconciled here.
func (s *Service) RunExpirySweep(ctx context.Context) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}

	overdue, err := s.store.ListPendingPastExpiry(ctx, s.nowUTC(), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, request := range overdue {
		if err := s.ExpireIfDue(ctx, request.ID); err != nil {
			log.Printf("expiry sweep request_id=%s err=%v", request.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// checkMemberships rejects founders that already belong to a hold.
func (s *Service) checkMemberships(ctx context.Context, request Request) error {
	if s.memberships == nil {
		return nil
	}
	participants := append([]string{request.InitiatorID}, request.Invited...)
	for _, participantID := range participants {
		member, err := s.memberships.IsMember(ctx, participantID)
		if err != nil {
			return err
		}
		if member {
			return ErrMemberInHold
		}
	}
	return nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

type noopDispatcher struct{}

func (noopDispatcher) InviteIssued(context.Context, InviteNotice) {}

func (noopDispatcher) Progress(context.Context, ProgressNotice) {}

func (noopDispatcher) Completed(context.Context, CompletedNotice) {}

func (noopDispatcher) Cancelled(context.Context, CancelledNotice) {}

func (noopDispatcher) Expired(context.Context, ExpiredNotice) {}

func (noopDispatcher) ProvisionFailed(context.Context, ProvisionFailedNotice) {}

type noopScheduler struct{}

func (noopScheduler) Arm(string, time.Time) {}

func (noopScheduler) Disarm(string) {}

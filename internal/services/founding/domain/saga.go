package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	apperrors "github.com/hearthhold/hearthhold/internal/platform/errors"
	"golang.org/x/sync/errgroup"
)

// runProvisioningSaga provisions the hold resource bundle for a request
// that just reached quorum, then commits the COMPLETE transition. Any
// creation failure rolls back every resource created so far and marks
// the request PROVISION_FAILED; the saga is never retried automatically.
//
// The caller holds the finalizing marker, not the request lock, so other
// transitions stay responsive while provisioning I/O is in flight. The
// context must not carry the caller's cancellation: once begun the saga
// runs to completion or PROVISION_FAILED.
func (s *Service) runProvisioningSaga(ctx context.Context, request Request) (Status, error) {
	if s.provisioner == nil {
		return StatusPending, ErrProvisionerNotConfigured
	}

	bundle, provisionErr := s.provisionBundle(ctx, request)
	if provisionErr != nil {
		stray := s.rollbackBundle(ctx, request.ID, bundle)
		return s.failProvisioning(ctx, request, provisionErr, stray)
	}

	if err := s.store.SetProvisionedBundle(ctx, request.ID, bundle, s.nowUTC()); err != nil {
		stray := s.rollbackBundle(ctx, request.ID, bundle)
		return s.failProvisioning(ctx, request, fmt.Errorf("persist provisioned bundle: %w", err), stray)
	}
	if err := s.store.SetStatus(ctx, request.ID, StatusPending, StatusComplete, s.nowUTC()); err != nil {
		if errors.Is(err, ErrConflict) {
			// Another terminal transition committed while the saga ran
			// (a concurrent sweep in another process). The bundle must
			// not outlive the request.
			s.rollbackBundle(ctx, request.ID, bundle)
			return StatusPending, ErrConflict
		}
		return s.failProvisioning(ctx, request, fmt.Errorf("commit completion: %w", err), nil)
	}

	s.scheduler.Disarm(request.ID)
	s.dispatcher.Completed(ctx, CompletedNotice{
		RequestID:   request.ID,
		InitiatorID: request.InitiatorID,
		HoldName:    request.HoldName,
		Bundle:      bundle,
	})
	log.Printf("founding complete request_id=%s hold_name=%q namespace_id=%s channels=%d",
		request.ID, request.HoldName, bundle.NamespaceID, len(bundle.Channels))
	return StatusComplete, nil
}

// provisionBundle creates the namespace and its channel set. Channels are
// created concurrently; every creation call is awaited before the bundle
// is considered done. On failure the returned bundle holds whatever was
// created so the caller can roll it back.
func (s *Service) provisionBundle(ctx context.Context, request Request) (ProvisionedBundle, error) {
	namespaceID, err := s.provisioner.CreateNamespace(ctx, request.HoldName)
	if err != nil {
		return ProvisionedBundle{}, apperrors.Wrap(apperrors.CodeProvisionFailed, "create namespace", err)
	}

	specs := DefaultChannelBundle()
	channels := make([]ProvisionedChannel, len(specs))
	var mu sync.Mutex
	var created []ProvisionedChannel

	group, groupCtx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		group.Go(func() error {
			channelID, channelErr := s.provisioner.CreateChannel(groupCtx, namespaceID, spec)
			if channelErr != nil {
				return apperrors.Wrap(apperrors.CodeProvisionFailed,
					fmt.Sprintf("create channel %s", spec.Key), channelErr)
			}
			channel := ProvisionedChannel{Key: spec.Key, Kind: spec.Kind, ChannelID: channelID}
			channels[i] = channel
			mu.Lock()
			created = append(created, channel)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return ProvisionedBundle{NamespaceID: namespaceID, Channels: created}, err
	}

	return ProvisionedBundle{NamespaceID: namespaceID, Channels: channels}, nil
}

// rollbackBundle deletes every resource in the bundle, best effort: each
// deletion failure is logged and the rest of the sequence continues so
// cleanup is maximized even under partial failure. It returns the
// resources it failed to delete.
func (s *Service) rollbackBundle(ctx context.Context, requestID string, bundle ProvisionedBundle) []string {
	var stray []string
	for _, channel := range bundle.Channels {
		if channel.ChannelID == "" {
			continue
		}
		if err := s.provisioner.DeleteChannel(ctx, channel.ChannelID); err != nil {
			log.Printf("rollback channel request_id=%s channel_id=%s err=%v", requestID, channel.ChannelID, err)
			stray = append(stray, "channel "+channel.ChannelID)
		}
	}
	if bundle.NamespaceID != "" {
		if err := s.provisioner.DeleteNamespace(ctx, bundle.NamespaceID); err != nil {
			log.Printf("rollback namespace request_id=%s namespace_id=%s err=%v", requestID, bundle.NamespaceID, err)
			stray = append(stray, "namespace "+bundle.NamespaceID)
		}
	}
	return stray
}

// failProvisioning commits the PROVISION_FAILED terminal status so the
// request is never silently left pending, then notifies the initiator.
// Resources the rollback could not delete are attached as metadata for
// operator reconciliation. The notice follows the commit: when the
// terminal write does not land, no notice is sent.
func (s *Service) failProvisioning(ctx context.Context, request Request, cause error, stray []string) (Status, error) {
	if len(stray) > 0 {
		cause = &apperrors.Error{
			Code:     apperrors.CodeProvisionRollbackIncomplete,
			Message:  "provisioning rollback left stray resources",
			Metadata: map[string]string{"Resources": strings.Join(stray, ", ")},
			Cause:    cause,
		}
	}
	if err := s.store.SetStatus(ctx, request.ID, StatusPending, StatusProvisionFailed, s.nowUTC()); err != nil {
		if !errors.Is(err, ErrConflict) {
			log.Printf("mark provision failed request_id=%s err=%v", request.ID, err)
		}
		return StatusPending, cause
	}
	s.scheduler.Disarm(request.ID)

	s.dispatcher.ProvisionFailed(ctx, ProvisionFailedNotice{
		RequestID:   request.ID,
		InitiatorID: request.InitiatorID,
		HoldName:    request.HoldName,
		Reason:      failureReason(cause),
	})
	log.Printf("founding provision failed request_id=%s hold_name=%q err=%v", request.ID, request.HoldName, cause)
	return StatusProvisionFailed, cause
}

// failureReason flattens an error chain into the initiator-facing reason.
// Domain errors render their message without the wrapped cause, so the
// chain is walked explicitly.
func failureReason(err error) string {
	if appErr, ok := err.(*apperrors.Error); ok && appErr.Cause != nil {
		return appErr.Message + ": " + failureReason(appErr.Cause)
	}
	return err.Error()
}

package app

import (
	"context"
	"errors"
	"time"

	"github.com/hearthhold/hearthhold/internal/services/founding/domain"
	"github.com/hearthhold/hearthhold/internal/services/founding/provision"
	"github.com/hearthhold/hearthhold/internal/services/founding/storage"
)

// domainStoreAdapter bridges the founding domain Store contract onto
// the storage layer, translating record shapes and sentinel errors.
type domainStoreAdapter struct {
	requestStore storage.RequestStore
}

func newDomainStoreAdapter(requestStore storage.RequestStore) *domainStoreAdapter {
	return &domainStoreAdapter{requestStore: requestStore}
}

func (a *domainStoreAdapter) PutRequest(ctx context.Context, request domain.Request) error {
	if a == nil || a.requestStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.requestStore.PutRequest(ctx, toStorageRequest(request)))
}

func (a *domainStoreAdapter) GetRequest(ctx context.Context, requestID string) (domain.Request, error) {
	if a == nil || a.requestStore == nil {
		return domain.Request{}, domain.ErrStoreNotConfigured
	}
	record, err := a.requestStore.GetRequest(ctx, requestID)
	if err != nil {
		return domain.Request{}, mapStorageError(err)
	}
	return toDomainRequest(record), nil
}

func (a *domainStoreAdapter) AppendConfirmation(ctx context.Context, requestID string, participantID string, at time.Time) (int, error) {
	if a == nil || a.requestStore == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	count, err := a.requestStore.AppendConfirmation(ctx, requestID, participantID, at)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return count, nil
}

func (a *domainStoreAdapter) SetStatus(ctx context.Context, requestID string, from domain.Status, to domain.Status, at time.Time) error {
	if a == nil || a.requestStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.requestStore.SetRequestStatus(ctx, requestID, domain.StatusLabel(from), domain.StatusLabel(to), at))
}

func (a *domainStoreAdapter) SetProvisionedBundle(ctx context.Context, requestID string, bundle domain.ProvisionedBundle, at time.Time) error {
	if a == nil || a.requestStore == nil {
		return domain.ErrStoreNotConfigured
	}
	record := storage.ProvisionedBundleRecord{
		NamespaceID: bundle.NamespaceID,
		Channels:    make([]storage.ProvisionedChannelRecord, 0, len(bundle.Channels)),
	}
	for _, channel := range bundle.Channels {
		record.Channels = append(record.Channels, storage.ProvisionedChannelRecord{
			Key:       channel.Key,
			Kind:      string(channel.Kind),
			ChannelID: channel.ChannelID,
		})
	}
	return mapStorageError(a.requestStore.SetProvisionedBundle(ctx, requestID, record, at))
}

func (a *domainStoreAdapter) ListPendingPastExpiry(ctx context.Context, now time.Time, limit int) ([]domain.Request, error) {
	if a == nil || a.requestStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.requestStore.ListPendingPastExpiry(ctx, now, limit)
	if err != nil {
		return nil, mapStorageError(err)
	}
	requests := make([]domain.Request, 0, len(records))
	for _, record := range records {
		requests = append(requests, toDomainRequest(record))
	}
	return requests, nil
}

// membershipsAdapter answers hold membership checks from storage.
type membershipsAdapter struct {
	holdStore storage.HoldStore
}

func newMembershipsAdapter(holdStore storage.HoldStore) *membershipsAdapter {
	return &membershipsAdapter{holdStore: holdStore}
}

func (a *membershipsAdapter) IsMember(ctx context.Context, participantID string) (bool, error) {
	if a == nil || a.holdStore == nil {
		return false, nil
	}
	return a.holdStore.IsHoldMember(ctx, participantID)
}

// provisionerAdapter bridges the domain Provisioner contract onto the
// HTTP provisioning client.
type provisionerAdapter struct {
	client *provision.Client
}

func newProvisionerAdapter(client *provision.Client) *provisionerAdapter {
	return &provisionerAdapter{client: client}
}

func (a *provisionerAdapter) CreateNamespace(ctx context.Context, name string) (string, error) {
	if a == nil || a.client == nil {
		return "", domain.ErrProvisionerNotConfigured
	}
	return a.client.CreateNamespace(ctx, name)
}

func (a *provisionerAdapter) DeleteNamespace(ctx context.Context, namespaceID string) error {
	if a == nil || a.client == nil {
		return domain.ErrProvisionerNotConfigured
	}
	return a.client.DeleteNamespace(ctx, namespaceID)
}

func (a *provisionerAdapter) CreateChannel(ctx context.Context, namespaceID string, spec domain.ChannelSpec) (string, error) {
	if a == nil || a.client == nil {
		return "", domain.ErrProvisionerNotConfigured
	}
	return a.client.CreateChannel(ctx, namespaceID, spec.Key, string(spec.Kind))
}

func (a *provisionerAdapter) DeleteChannel(ctx context.Context, channelID string) error {
	if a == nil || a.client == nil {
		return domain.ErrProvisionerNotConfigured
	}
	return a.client.DeleteChannel(ctx, channelID)
}

func toStorageRequest(request domain.Request) storage.FoundingRequestRecord {
	record := storage.FoundingRequestRecord{
		ID:          request.ID,
		InitiatorID: request.InitiatorID,
		HoldName:    request.HoldName,
		Status:      domain.StatusLabel(request.Status),
		Quorum:      request.Quorum,
		Invited:     append([]string(nil), request.Invited...),
		CreatedAt:   request.CreatedAt,
		ExpiresAt:   request.ExpiresAt,
		UpdatedAt:   request.UpdatedAt,
	}
	for _, participantID := range request.Confirmed {
		record.Confirmed = append(record.Confirmed, storage.ConfirmationRecord{
			ParticipantID: participantID,
			ConfirmedAt:   request.CreatedAt,
		})
	}
	return record
}

func toDomainRequest(record storage.FoundingRequestRecord) domain.Request {
	request := domain.Request{
		ID:          record.ID,
		InitiatorID: record.InitiatorID,
		HoldName:    record.HoldName,
		Status:      domain.StatusFromLabel(record.Status),
		Quorum:      record.Quorum,
		Invited:     append([]string(nil), record.Invited...),
		CreatedAt:   record.CreatedAt,
		ExpiresAt:   record.ExpiresAt,
		UpdatedAt:   record.UpdatedAt,
	}
	for _, confirmation := range record.Confirmed {
		request.Confirmed = append(request.Confirmed, confirmation.ParticipantID)
	}
	return request
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	default:
		return err
	}
}

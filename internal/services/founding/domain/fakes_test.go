package domain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeStore struct {
	mu          sync.Mutex
	requests    map[string]Request
	bundles     map[string]ProvisionedBundle
	transitions map[string]int

	appendErr error
	putErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:    make(map[string]Request),
		bundles:     make(map[string]ProvisionedBundle),
		transitions: make(map[string]int),
	}
}

func (f *fakeStore) PutRequest(_ context.Context, request Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if _, ok := f.requests[request.ID]; ok {
		return ErrConflict
	}
	f.requests[request.ID] = cloneRequest(request)
	return nil
}

func (f *fakeStore) GetRequest(_ context.Context, requestID string) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[requestID]
	if !ok {
		return Request{}, ErrNotFound
	}
	return cloneRequest(request), nil
}

func (f *fakeStore) AppendConfirmation(_ context.Context, requestID string, participantID string, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	request, ok := f.requests[requestID]
	if !ok {
		return 0, ErrNotFound
	}
	if request.Status != StatusPending {
		return 0, ErrConflict
	}
	if request.HasConfirmed(participantID) {
		return 0, ErrConflict
	}
	request.Confirmed = append(request.Confirmed, participantID)
	request.UpdatedAt = at
	f.requests[requestID] = request
	return len(request.Confirmed), nil
}

func (f *fakeStore) SetStatus(_ context.Context, requestID string, from Status, to Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	if request.Status != from {
		return ErrConflict
	}
	request.Status = to
	request.UpdatedAt = at
	f.requests[requestID] = request
	if to.Terminal() {
		f.transitions[requestID]++
	}
	return nil
}

func (f *fakeStore) SetProvisionedBundle(_ context.Context, requestID string, bundle ProvisionedBundle, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[requestID]; !ok {
		return ErrNotFound
	}
	f.bundles[requestID] = bundle
	return nil
}

func (f *fakeStore) ListPendingPastExpiry(_ context.Context, now time.Time, limit int) ([]Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var overdue []Request
	for _, request := range f.requests {
		if request.Status != StatusPending || request.ExpiresAt.After(now) {
			continue
		}
		overdue = append(overdue, cloneRequest(request))
		if len(overdue) == limit {
			break
		}
	}
	return overdue, nil
}

func (f *fakeStore) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeStore) statusTransitions(requestID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transitions[requestID]
}

func cloneRequest(request Request) Request {
	request.Invited = append([]string(nil), request.Invited...)
	request.Confirmed = append([]string(nil), request.Confirmed...)
	return request
}

// fakeProvisioner records namespace and channel operations and can be
// told to fail specific calls.
type fakeProvisioner struct {
	mu       sync.Mutex
	sequence int

	namespaces      map[string]bool
	channels        map[string]bool
	createdChannels []string

	namespaceErr error
	channelErrs  map[string]error
	deleteErr    error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		namespaces:  make(map[string]bool),
		channels:    make(map[string]bool),
		channelErrs: make(map[string]error),
	}
}

func (f *fakeProvisioner) CreateNamespace(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.namespaceErr != nil {
		return "", f.namespaceErr
	}
	f.sequence++
	namespaceID := fmt.Sprintf("ns-%d-%s", f.sequence, name)
	f.namespaces[namespaceID] = true
	return namespaceID, nil
}

func (f *fakeProvisioner) DeleteNamespace(_ context.Context, namespaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.namespaces, namespaceID)
	return nil
}

func (f *fakeProvisioner) CreateChannel(_ context.Context, namespaceID string, spec ChannelSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.channelErrs[spec.Key]; err != nil {
		return "", err
	}
	f.sequence++
	channelID := fmt.Sprintf("ch-%d-%s", f.sequence, spec.Key)
	f.channels[channelID] = true
	f.createdChannels = append(f.createdChannels, channelID)
	return channelID, nil
}

func (f *fakeProvisioner) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.channels, channelID)
	return nil
}

// namespaceCreates counts namespace creations including any later
// rolled back.
func (f *fakeProvisioner) namespaceCreates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sequence - len(f.createdChannels)
}

func (f *fakeProvisioner) liveResources() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.namespaces), len(f.channels)
}

type fakeDispatcher struct {
	mu              sync.Mutex
	invited         []InviteNotice
	progress        []ProgressNotice
	completed       []CompletedNotice
	cancelled       []CancelledNotice
	expired         []ExpiredNotice
	provisionFailed []ProvisionFailedNotice
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{}
}

func (f *fakeDispatcher) InviteIssued(_ context.Context, notice InviteNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invited = append(f.invited, notice)
}

func (f *fakeDispatcher) Progress(_ context.Context, notice ProgressNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, notice)
}

func (f *fakeDispatcher) Completed(_ context.Context, notice CompletedNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, notice)
}

func (f *fakeDispatcher) Cancelled(_ context.Context, notice CancelledNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, notice)
}

func (f *fakeDispatcher) Expired(_ context.Context, notice ExpiredNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, notice)
}

func (f *fakeDispatcher) ProvisionFailed(_ context.Context, notice ProvisionFailedNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisionFailed = append(f.provisionFailed, notice)
}

func (f *fakeDispatcher) invites() []InviteNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]InviteNotice(nil), f.invited...)
}

func (f *fakeDispatcher) progressNotices() []ProgressNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProgressNotice(nil), f.progress...)
}

func (f *fakeDispatcher) completedNotices() []CompletedNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompletedNotice(nil), f.completed...)
}

func (f *fakeDispatcher) cancelledNotices() []CancelledNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CancelledNotice(nil), f.cancelled...)
}

func (f *fakeDispatcher) expiredNotices() []ExpiredNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExpiredNotice(nil), f.expired...)
}

func (f *fakeDispatcher) provisionFailedNotices() []ProvisionFailedNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProvisionFailedNotice(nil), f.provisionFailed...)
}

type fakeScheduler struct {
	mu       sync.Mutex
	armed    map[string]time.Time
	disarmed map[string]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		armed:    make(map[string]time.Time),
		disarmed: make(map[string]bool),
	}
}

func (f *fakeScheduler) Arm(requestID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[requestID] = at
}

func (f *fakeScheduler) Disarm(requestID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disarmed[requestID] = true
}

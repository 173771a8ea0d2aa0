package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestService(store *fakeStore, provisioner *fakeProvisioner, dispatcher *fakeDispatcher, scheduler *fakeScheduler) *Service {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	counter := 0
	return NewService(ServiceDeps{
		Store:       store,
		Provisioner: provisioner,
		Dispatcher:  dispatcher,
		Scheduler:   scheduler,
		Clock:       fixedClock(now),
		NewID: func() (string, error) {
			counter++
			return fmt.Sprintf("id-%d", counter), nil
		},
	})
}

func startEmberFounding(t *testing.T, svc *Service) Request {
	t.Helper()
	request, err := svc.StartFounding(context.Background(), StartFoundingInput{
		InitiatorID: "user-a",
		HoldName:    "Ember",
		Invited:     []string{"user-b", "user-c", "user-d", "user-e"},
	})
	if err != nil {
		t.Fatalf("start founding: %v", err)
	}
	return request
}

func TestStartFoundingPersistsAndInvites(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	dispatcher := newFakeDispatcher()
	scheduler := newFakeScheduler()
	svc := newTestService(store, newFakeProvisioner(), dispatcher, scheduler)

	request := startEmberFounding(t, svc)

	stored, err := store.GetRequest(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("get stored request: %v", err)
	}
	if stored.Status != StatusPending {
		t.Fatalf("status = %s, want PENDING", StatusLabel(stored.Status))
	}
	if got := scheduler.armed[request.ID]; !got.Equal(request.ExpiresAt) {
		t.Fatalf("scheduler armed at %v, want %v", got, request.ExpiresAt)
	}
	if got := len(dispatcher.invites()); got != 4 {
		t.Fatalf("invite notices = %d, want 4", got)
	}
	for _, notice := range dispatcher.invites() {
		if notice.RequestID != request.ID || notice.InitiatorID != "user-a" || notice.HoldName != "Ember" {
			t.Fatalf("unexpected invite notice: %+v", notice)
		}
	}
}

func TestStartFoundingRejectsExistingMembers(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newTestService(store, newFakeProvisioner(), newFakeDispatcher(), newFakeScheduler())
	svc.memberships = membershipsFunc(func(_ context.Context, participantID string) (bool, error) {
		return participantID == "user-c", nil
	})

	_, err := svc.StartFounding(context.Background(), StartFoundingInput{
		InitiatorID: "user-a",
		HoldName:    "Ember",
		Invited:     []string{"user-b", "user-c"},
	})
	if !errors.Is(err, ErrMemberInHold) {
		t.Fatalf("error = %v, want ErrMemberInHold", err)
	}
	if store.requestCount() != 0 {
		t.Fatal("expected nothing persisted after membership rejection")
	}
}

// TestConfirmQuorumScenario walks the canonical founding of "Ember":
// A starts, B and C confirm with progress updates, D's confirmation
// reaches quorum and provisions the hold, and E's late confirmation is
// rejected as terminal.
func TestConfirmQuorumScenario(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	provisioner := newFakeProvisioner()
	dispatcher := newFakeDispatcher()
	scheduler := newFakeScheduler()
	svc := newTestService(store, provisioner, dispatcher, scheduler)
	request := startEmberFounding(t, svc)
	ctx := context.Background()

	for i, participant := range []string{"user-b", "user-c"} {
		progress, err := svc.Confirm(ctx, request.ID, participant)
		if err != nil {
			t.Fatalf("confirm %s: %v", participant, err)
		}
		if progress.Status != StatusPending {
			t.Fatalf("status after %s = %s, want PENDING", participant, StatusLabel(progress.Status))
		}
		if progress.ConfirmedCount != i+2 {
			t.Fatalf("confirmed count after %s = %d, want %d", participant, progress.ConfirmedCount, i+2)
		}
	}
	notices := dispatcher.progressNotices()
	if len(notices) != 2 {
		t.Fatalf("progress notices = %d, want 2", len(notices))
	}
	if last := notices[1]; last.ConfirmedCount != 3 || last.Quorum != 4 {
		t.Fatalf("last progress = %d/%d, want 3/4", last.ConfirmedCount, last.Quorum)
	}

	progress, err := svc.Confirm(ctx, request.ID, "user-d")
	if err != nil {
		t.Fatalf("confirm user-d: %v", err)
	}
	if progress.Status != StatusComplete {
		t.Fatalf("status after quorum = %s, want COMPLETE", StatusLabel(progress.Status))
	}
	if provisioner.namespaceCreates() != 1 {
		t.Fatalf("namespace creates = %d, want 1", provisioner.namespaceCreates())
	}
	if got := len(dispatcher.completedNotices()); got != 1 {
		t.Fatalf("completed notices = %d, want 1", got)
	}
	bundle := dispatcher.completedNotices()[0].Bundle
	if bundle.NamespaceID == "" || len(bundle.Channels) != len(DefaultChannelBundle()) {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}
	if !scheduler.disarmed[request.ID] {
		t.Fatal("expected scheduler disarm on completion")
	}

	_, err = svc.Confirm(ctx, request.ID, "user-e")
	if !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("late confirm error = %v, want ErrAlreadyTerminal", err)
	}
}

func TestConfirmDuplicateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	dispatcher := newFakeDispatcher()
	svc := newTestService(store, newFakeProvisioner(), dispatcher, newFakeScheduler())
	request := startEmberFounding(t, svc)
	ctx := context.Background()

	first, err := svc.Confirm(ctx, request.ID, "user-b")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	second, err := svc.Confirm(ctx, request.ID, "user-b")
	if err != nil {
		t.Fatalf("duplicate confirm: %v", err)
	}
	if second.ConfirmedCount != first.ConfirmedCount {
		t.Fatalf("duplicate changed count from %d to %d", first.ConfirmedCount, second.ConfirmedCount)
	}
	if got := len(dispatcher.progressNotices()); got != 1 {
		t.Fatalf("progress notices = %d, want 1 (no duplicate notification)", got)
	}
}

func TestConfirmRejections(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newTestService(store, newFakeProvisioner(), newFakeDispatcher(), newFakeScheduler())
	request := startEmberFounding(t, svc)
	ctx := context.Background()

	if _, err := svc.Confirm(ctx, "missing", "user-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown request error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Confirm(ctx, request.ID, "stranger"); !errors.Is(err, ErrNotInvited) {
		t.Fatalf("stranger error = %v, want ErrNotInvited", err)
	}
	if _, err := svc.Confirm(ctx, request.ID, " "); !errors.Is(err, ErrEmptyParticipantID) {
		t.Fatalf("empty participant error = %v, want ErrEmptyParticipantID", err)
	}
}

// TestDeclineCancelsFounding covers the all-or-nothing policy: one
// decline before quorum cancels the whole request.
func TestDeclineCancelsFounding(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	dispatcher := newFakeDispatcher()
	scheduler := newFakeScheduler()
	svc := newTestService(store, newFakeProvisioner(), dispatcher, scheduler)
	request := startEmberFounding(t, svc)
	ctx := context.Background()

	if _, err := svc.Confirm(ctx, request.ID, "user-b"); err != nil {
		t.Fatalf("confirm user-b: %v", err)
	}
	if err := svc.Decline(ctx, request.ID, "user-c"); err != nil {
		t.Fatalf("decline user-c: %v", err)
	}

	stored, err := store.GetRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if stored.Status != StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", StatusLabel(stored.Status))
	}
	cancelled := dispatcher.cancelledNotices()
	if len(cancelled) != 1 || cancelled[0].DeclinerID != "user-c" {
		t.Fatalf("cancelled notices = %+v, want one naming user-c", cancelled)
	}
	if !scheduler.disarmed[request.ID] {
		t.Fatal("expected scheduler disarm on decline")
	}

	if _, err := svc.Confirm(ctx, request.ID, "user-d"); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("confirm after decline error = %v, want ErrAlreadyTerminal", err)
	}
}

func TestDeclineByInitiatorRejected(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newTestService(store, newFakeProvisioner(), newFakeDispatcher(), newFakeScheduler())
	request := startEmberFounding(t, svc)

	if err := svc.Decline(context.Background(), request.ID, "user-a"); !errors.Is(err, ErrNotInvited) {
		t.Fatalf("initiator decline error = %v, want ErrNotInvited", err)
	}
}

func TestExpireIfDue(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	dispatcher := newFakeDispatcher()
	svc := newTestService(store, newFakeProvisioner(), dispatcher, newFakeScheduler())
	request := startEmberFounding(t, svc)
	ctx := context.Background()

	// Not yet due: nothing happens.
	if err := svc.ExpireIfDue(ctx, request.ID); err != nil {
		t.Fatalf("expire before due: %v", err)
	}
	stored, _ := store.GetRequest(ctx, request.ID)
	if stored.Status != StatusPending {
		t.Fatalf("status = %s, want PENDING before expiry", StatusLabel(stored.Status))
	}

	if _, err := svc.Confirm(ctx, request.ID, "user-b"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	svc.clock = fixedClock(request.ExpiresAt.Add(time.Second))
	if err := svc.ExpireIfDue(ctx, request.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}
	stored, _ = store.GetRequest(ctx, request.ID)
	if stored.Status != StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", StatusLabel(stored.Status))
	}

	notices := dispatcher.expiredNotices()
	if len(notices) != 1 {
		t.Fatalf("expired notices = %d, want 1", len(notices))
	}
	unconfirmed := notices[0].Unconfirmed
	if len(unconfirmed) != 3 {
		t.Fatalf("unconfirmed = %v, want the three silent invitees", unconfirmed)
	}

	// A second firing resolves as a no-op without another notification.
	if err := svc.ExpireIfDue(ctx, request.ID); err != nil {
		t.Fatalf("expire on terminal: %v", err)
	}
	if got := len(dispatcher.expiredNotices()); got != 1 {
		t.Fatalf("expired notices after no-op = %d, want 1", got)
	}
}

func TestExpireIfDueIgnoresMissingRequest(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore(), newFakeProvisioner(), newFakeDispatcher(), newFakeScheduler())
	if err := svc.ExpireIfDue(context.Background(), "missing"); err != nil {
		t.Fatalf("expected missing request to be a no-op, got %v", err)
	}
}

func TestRunExpirySweep(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	dispatcher := newFakeDispatcher()
	svc := newTestService(store, newFakeProvisioner(), dispatcher, newFakeScheduler())
	ctx := context.Background()

	first := startEmberFounding(t, svc)
	second, err := svc.StartFounding(ctx, StartFoundingInput{
		InitiatorID: "user-x",
		HoldName:    "North Hold",
		Invited:     []string{"user-y"},
	})
	if err != nil {
		t.Fatalf("start second founding: %v", err)
	}

	svc.clock = fixedClock(first.ExpiresAt.Add(time.Minute))
	expired, err := svc.RunExpirySweep(ctx)
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expired = %d, want 2", expired)
	}
	for _, requestID := range []string{first.ID, second.ID} {
		stored, _ := store.GetRequest(ctx, requestID)
		if stored.Status != StatusExpired {
			t.Fatalf("request %s status = %s, want EXPIRED", requestID, StatusLabel(stored.Status))
		}
	}
}

// TestConcurrentConfirmsProvisionOnce drives the exact set of invitees
// needed for quorum from concurrent goroutines, repeatedly, and asserts
// exactly one completion transition and one saga execution per request.
func TestConcurrentConfirmsProvisionOnce(t *testing.T) {
	t.Parallel()

	for round := 0; round < 25; round++ {
		store := newFakeStore()
		provisioner := newFakeProvisioner()
		dispatcher := newFakeDispatcher()
		svc := newTestService(store, provisioner, dispatcher, newFakeScheduler())
		request := startEmberFounding(t, svc)
		ctx := context.Background()

		var wg sync.WaitGroup
		for _, participant := range []string{"user-b", "user-c", "user-d", "user-e"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Confirm(ctx, request.ID, participant)
				if err != nil && !errors.Is(err, ErrAlreadyTerminal) {
					t.Errorf("confirm %s: %v", participant, err)
				}
			}()
		}
		wg.Wait()

		stored, err := store.GetRequest(ctx, request.ID)
		if err != nil {
			t.Fatalf("get request: %v", err)
		}
		if stored.Status != StatusComplete {
			t.Fatalf("status = %s, want COMPLETE", StatusLabel(stored.Status))
		}
		if got := provisioner.namespaceCreates(); got != 1 {
			t.Fatalf("namespace creates = %d, want exactly 1", got)
		}
		if got := len(dispatcher.completedNotices()); got != 1 {
			t.Fatalf("completed notices = %d, want exactly 1", got)
		}
		if got := store.statusTransitions(request.ID); got != 1 {
			t.Fatalf("terminal transitions = %d, want exactly 1", got)
		}
	}
}

func TestConfirmCountsAreMonotonic(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newTestService(store, newFakeProvisioner(), newFakeDispatcher(), newFakeScheduler())
	request := startEmberFounding(t, svc)
	ctx := context.Background()

	last := 0
	for _, participant := range []string{"user-b", "user-b", "user-c", "user-c", "user-b"} {
		progress, err := svc.Confirm(ctx, request.ID, participant)
		if err != nil {
			t.Fatalf("confirm %s: %v", participant, err)
		}
		if progress.ConfirmedCount < last {
			t.Fatalf("count regressed from %d to %d", last, progress.ConfirmedCount)
		}
		last = progress.ConfirmedCount
	}
}

type membershipsFunc func(ctx context.Context, participantID string) (bool, error)

func (f membershipsFunc) IsMember(ctx context.Context, participantID string) (bool, error) {
	return f(ctx, participantID)
}

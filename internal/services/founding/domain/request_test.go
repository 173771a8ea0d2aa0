package domain

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDGenerator(ids ...string) func() (string, error) {
	index := 0
	return func() (string, error) {
		if index >= len(ids) {
			return "", errors.New("id generator exhausted")
		}
		value := ids[index]
		index++
		return value, nil
	}
}

func TestCreateRequestPreconfirmsInitiator(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	request, err := CreateRequest(CreateRequestInput{
		InitiatorID: "user-a",
		HoldName:    "Ember",
		Invited:     []string{"user-b", "user-c", "user-d", "user-e"},
	}, fixedClock(now), sequentialIDGenerator("req-1"))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	if request.ID != "req-1" {
		t.Fatalf("id = %q, want req-1", request.ID)
	}
	if request.Status != StatusPending {
		t.Fatalf("status = %s, want PENDING", StatusLabel(request.Status))
	}
	if len(request.Confirmed) != 1 || request.Confirmed[0] != "user-a" {
		t.Fatalf("confirmed = %v, want initiator only", request.Confirmed)
	}
	if request.Quorum != 4 {
		t.Fatalf("quorum = %d, want 4", request.Quorum)
	}
	if !request.ExpiresAt.Equal(now.Add(DefaultWindow)) {
		t.Fatalf("expires_at = %v, want %v", request.ExpiresAt, now.Add(DefaultWindow))
	}
}

func TestCreateRequestClampsQuorumToParticipants(t *testing.T) {
	t.Parallel()

	request, err := CreateRequest(CreateRequestInput{
		InitiatorID: "user-a",
		HoldName:    "Small Hold",
		Invited:     []string{"user-b"},
	}, nil, sequentialIDGenerator("req-1"))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if request.Quorum != 2 {
		t.Fatalf("quorum = %d, want 2 for two participants", request.Quorum)
	}
}

func TestCreateRequestDeduplicatesInvitees(t *testing.T) {
	t.Parallel()

	request, err := CreateRequest(CreateRequestInput{
		InitiatorID: "user-a",
		HoldName:    "Ember",
		Invited:     []string{"user-b", " user-b ", "user-c", ""},
	}, nil, sequentialIDGenerator("req-1"))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if len(request.Invited) != 2 {
		t.Fatalf("invited = %v, want deduplicated pair", request.Invited)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   CreateRequestInput
		wantErr error
	}{
		{
			name:    "missing initiator",
			input:   CreateRequestInput{HoldName: "Ember", Invited: []string{"user-b"}},
			wantErr: ErrEmptyInitiatorID,
		},
		{
			name:    "initiator invited",
			input:   CreateRequestInput{InitiatorID: "user-a", HoldName: "Ember", Invited: []string{"user-a"}},
			wantErr: ErrInitiatorInvited,
		},
		{
			name:    "no invitees",
			input:   CreateRequestInput{InitiatorID: "user-a", HoldName: "Ember", Invited: []string{" "}},
			wantErr: ErrNoInvitees,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := CreateRequest(tc.input, nil, sequentialIDGenerator("req-1"))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateHoldName(t *testing.T) {
	t.Parallel()

	valid := []string{"Ember", "Iron Hearth", "Wolf's Den", "north-hold", "Hold 99"}
	for _, name := range valid {
		if err := validateHoldName(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}

	invalid := []string{"ab", "", "12345", "Bad#Name", "Ember\tTab",
		"this name is far far far too long for a hold"}
	for _, name := range invalid {
		if err := validateHoldName(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.Terminal() || StatusUnspecified.Terminal() {
		t.Fatal("pending and unspecified must not be terminal")
	}
	for _, status := range []Status{StatusComplete, StatusCancelled, StatusExpired, StatusProvisionFailed} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", StatusLabel(status))
		}
	}
}

func TestStatusLabelRoundTrip(t *testing.T) {
	t.Parallel()

	statuses := []Status{StatusPending, StatusComplete, StatusCancelled, StatusExpired, StatusProvisionFailed}
	for _, status := range statuses {
		if got := StatusFromLabel(StatusLabel(status)); got != status {
			t.Fatalf("round trip for %s returned %s", StatusLabel(status), StatusLabel(got))
		}
	}
	if StatusFromLabel("bogus") != StatusUnspecified {
		t.Fatal("unknown label should map to UNSPECIFIED")
	}
}

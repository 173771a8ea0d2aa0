package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hearthhold/hearthhold/internal/platform/id"
	"github.com/hearthhold/hearthhold/internal/platform/timeouts"
	"github.com/hearthhold/hearthhold/internal/services/founding/domain"
	"github.com/hearthhold/hearthhold/internal/services/founding/storage"
)

// Inbox delivers founding notifications into participant inboxes. It
// satisfies the fire-and-forget dispatcher contract: write failures are
// logged and never surface to the workflow, and dedupe keys make
// redelivery harmless.
type Inbox struct {
	store     storage.NotificationStore
	localizer Localizer
	clock     func() time.Time
	newID     func() (string, error)
}

// InboxDeps wires inbox collaborators. Store is required.
type InboxDeps struct {
	Store     storage.NotificationStore
	Localizer Localizer
	Clock     func() time.Time
	NewID     func() (string, error)
}

// NewInbox constructs an inbox dispatcher.
func NewInbox(deps InboxDeps) *Inbox {
	localizer := deps.Localizer
	if localizer == nil {
		localizer = NewLocalizer()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = id.NewID
	}
	return &Inbox{
		store:     deps.Store,
		localizer: localizer,
		clock:     clock,
		newID:     newID,
	}
}

// InviteIssued delivers one invitation to the invitee inbox.
func (i *Inbox) InviteIssued(ctx context.Context, notice domain.InviteNotice) {
	i.deliver(ctx, notice.ParticipantID, MessageTypeInvite,
		InviteBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:invite:%s", notice.RequestID, notice.ParticipantID))
}

// Progress reports confirmation progress to the initiator inbox.
func (i *Inbox) Progress(ctx context.Context, notice domain.ProgressNotice) {
	i.deliver(ctx, notice.InitiatorID, MessageTypeProgress,
		ProgressBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:progress:%d", notice.RequestID, notice.ConfirmedCount))
}

// Completed announces a successful founding to the initiator inbox.
func (i *Inbox) Completed(ctx context.Context, notice domain.CompletedNotice) {
	i.deliver(ctx, notice.InitiatorID, MessageTypeCompleted,
		CompletedBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:completed", notice.RequestID))
}

// Cancelled announces a declined founding to the initiator inbox and
// drops a receipt into the decliner's inbox.
func (i *Inbox) Cancelled(ctx context.Context, notice domain.CancelledNotice) {
	i.deliver(ctx, notice.InitiatorID, MessageTypeCancelled,
		CancelledBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:cancelled", notice.RequestID))
	if notice.DeclinerID == "" {
		return
	}
	i.deliver(ctx, notice.DeclinerID, MessageTypeCancelled,
		DeclinedReceiptBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:declined:%s", notice.RequestID, notice.DeclinerID))
}

// Expired announces a lapsed founding window to the initiator inbox and
// to every invitee who never answered.
func (i *Inbox) Expired(ctx context.Context, notice domain.ExpiredNotice) {
	i.deliver(ctx, notice.InitiatorID, MessageTypeExpired,
		ExpiredBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:expired", notice.RequestID))
	for _, participantID := range notice.Unconfirmed {
		i.deliver(ctx, participantID, MessageTypeExpired,
			ExpiredInviteeBody(i.localizer, notice),
			fmt.Sprintf("founding:%s:expired:%s", notice.RequestID, participantID))
	}
}

// ProvisionFailed reports a provisioning failure to the initiator inbox.
func (i *Inbox) ProvisionFailed(ctx context.Context, notice domain.ProvisionFailedNotice) {
	i.deliver(ctx, notice.InitiatorID, MessageTypeProvisionFailed,
		ProvisionFailedBody(i.localizer, notice),
		fmt.Sprintf("founding:%s:provision_failed", notice.RequestID))
}

func (i *Inbox) deliver(ctx context.Context, recipientID string, messageType string, body string, dedupeKey string) {
	if i == nil || i.store == nil {
		return
	}
	notificationID, err := i.newID()
	if err != nil {
		log.Printf("generate notification id message_type=%s recipient_id=%s err=%v", messageType, recipientID, err)
		return
	}

	record := storage.NotificationRecord{
		ID:          notificationID,
		RecipientID: recipientID,
		MessageType: messageType,
		Body:        body,
		DedupeKey:   dedupeKey,
		CreatedAt:   i.clock().UTC(),
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.DispatchCall)
	defer cancel()
	if err := i.store.PutNotification(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Already delivered under this dedupe key.
			return
		}
		log.Printf("deliver notification message_type=%s recipient_id=%s err=%v", messageType, recipientID, err)
	}
}

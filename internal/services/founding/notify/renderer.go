// Package notify renders and delivers founding workflow notifications
// to participant inboxes.
package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hearthhold/hearthhold/internal/services/founding/domain"
)

// Message type identifiers as persisted on inbox rows.
const (
	MessageTypeInvite          = "founding.invite"
	MessageTypeProgress        = "founding.progress"
	MessageTypeCompleted       = "founding.completed"
	MessageTypeCancelled       = "founding.cancelled"
	MessageTypeExpired         = "founding.expired"
	MessageTypeProvisionFailed = "founding.provision_failed"

	defaultGenericBody = "You have a new notification."
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// NewLocalizer returns the default English localizer.
func NewLocalizer() Localizer {
	return message.NewPrinter(language.English)
}

// InviteBody renders one invitation message.
func InviteBody(loc Localizer, notice domain.InviteNotice) string {
	return localize(loc, "founding.invite.body", notice.InitiatorID, notice.HoldName)
}

// ProgressBody renders one confirmation progress message.
func ProgressBody(loc Localizer, notice domain.ProgressNotice) string {
	return localize(loc, "founding.progress.body", notice.HoldName, notice.ConfirmedCount, notice.Quorum)
}

// CompletedBody renders one successful founding message.
func CompletedBody(loc Localizer, notice domain.CompletedNotice) string {
	return localize(loc, "founding.completed.body", notice.HoldName, len(notice.Bundle.Channels))
}

// CancelledBody renders one declined founding message.
func CancelledBody(loc Localizer, notice domain.CancelledNotice) string {
	return localize(loc, "founding.cancelled.body", notice.HoldName, notice.DeclinerID)
}

// DeclinedReceiptBody renders the confirmation shown to the decliner.
func DeclinedReceiptBody(loc Localizer, notice domain.CancelledNotice) string {
	return localize(loc, "founding.declined.body", notice.HoldName)
}

// ExpiredBody renders one lapsed founding window message.
func ExpiredBody(loc Localizer, notice domain.ExpiredNotice) string {
	return localize(loc, "founding.expired.body", notice.HoldName, len(notice.Unconfirmed))
}

// ExpiredInviteeBody renders the expiry message shown to an unconfirmed invitee.
func ExpiredInviteeBody(loc Localizer, notice domain.ExpiredNotice) string {
	return localize(loc, "founding.expired.invitee.body", notice.HoldName)
}

// ProvisionFailedBody renders one provisioning failure message.
func ProvisionFailedBody(loc Localizer, notice domain.ProvisionFailedNotice) string {
	return localize(loc, "founding.provision_failed.body", notice.HoldName)
}

func localize(loc Localizer, key string, args ...any) string {
	if loc == nil {
		loc = NewLocalizer()
	}
	rendered := loc.Sprintf(key, args...)
	if rendered == key {
		return defaultGenericBody
	}
	return rendered
}

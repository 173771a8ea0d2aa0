package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "founding.invite.body", "%s invited you to found the hold %q.")
	message.SetString(lang, "founding.progress.body", "Founding %q: %d of %d co-founders confirmed.")
	message.SetString(lang, "founding.completed.body", "The hold %q is founded with %d channels ready.")
	message.SetString(lang, "founding.cancelled.body", "Founding %q was cancelled: %s declined.")
	message.SetString(lang, "founding.declined.body", "You declined the founding of %q. The request was cancelled.")
	message.SetString(lang, "founding.expired.body", "Founding %q expired with %d invitations unanswered.")
	message.SetString(lang, "founding.expired.invitee.body", "The invitation to found %q expired before you answered.")
	message.SetString(lang, "founding.provision_failed.body", "Founding %q could not be completed. Nothing was created; please try again.")
}

package notification

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

func FormatAmount(amount decimal.Decimal, currency domain.Currency) string {
	return amount.StringFixed(currency.Scale())
}

func WithdrawalProcessed(amount, newBalance decimal.Decimal, currency domain.Currency) string {
	return fmt.Sprintf("Your withdrawal of %s %s has been received and is being processed. Your available balance is %s %s.",
		currency, FormatAmount(amount, currency), currency, FormatAmount(newBalance, currency))
}

func DepositReceived(amount, newBalance decimal.Decimal, currency domain.Currency, pending bool) string {
	if pending {
		return fmt.Sprintf("Your deposit of %s %s has been received and is awaiting confirmation.",
			currency, FormatAmount(amount, currency))
	}
	return fmt.Sprintf("Your deposit of %s %s was successful. Your new balance is %s %s.",
		currency, FormatAmount(amount, currency), currency, FormatAmount(newBalance, currency))
}

func TransferSent(amount decimal.Decimal, currency domain.Currency, recipient string) string {
	return fmt.Sprintf("You sent %s %s to %s.", currency, FormatAmount(amount, currency), recipient)
}

func TransferReceived(amount decimal.Decimal, currency domain.Currency, sender string) string {
	return fmt.Sprintf("You received %s %s from %s.", currency, FormatAmount(amount, currency), sender)
}

func TransferSubmitted(amount decimal.Decimal, currency domain.Currency, recipient string) string {
	return fmt.Sprintf("Your transfer of %s %s to %s is pending review.", currency, FormatAmount(amount, currency), recipient)
}

// Reviewed is sent after an admin approves or rejects a transaction.
func Reviewed(t *domain.Transaction, approved bool) string {
	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	kind := strings.ReplaceAll(string(t.Type), "_", " ")
	return fmt.Sprintf("Your %s of %s %s has been %s.", kind, t.Currency, FormatAmount(t.Amount, t.Currency), verdict)
}

func Cancelled(t *domain.Transaction) string {
	kind := strings.ReplaceAll(string(t.Type), "_", " ")
	return fmt.Sprintf("Your %s of %s %s was cancelled and the funds were returned to your balance.",
		kind, t.Currency, FormatAmount(t.Amount, t.Currency))
}

// ChannelForReview mirrors how the back office notifies customers: SMS for
// withdrawals, email for everything else.
func ChannelForReview(t domain.TransactionType) domain.NotificationChannel {
	if t == domain.TransactionTypeWithdrawal {
		return domain.NotificationChannelSMS
	}
	return domain.NotificationChannelEmail
}

// RequestFor builds a request addressed to the profile's preferred contact.
// ok is false when the profile has neither email nor phone.
func RequestFor(p *domain.Profile, message string, t *domain.Transaction) (Request, bool) {
	channel, recipient, ok := p.ContactFor()
	if !ok {
		return Request{}, false
	}
	req := Request{UserID: p.ID, Channel: channel, Recipient: recipient, Message: message}
	if t != nil {
		id := t.ID
		req.TransactionID = &id
	}
	return req, true
}

// RequestOn is RequestFor with a fixed channel. It falls back to the
// preferred contact when the profile lacks that channel.
func RequestOn(p *domain.Profile, channel domain.NotificationChannel, message string, t *domain.Transaction) (Request, bool) {
	recipient := ""
	switch channel {
	case domain.NotificationChannelSMS:
		if p.Phone != nil {
			recipient = *p.Phone
		}
	case domain.NotificationChannelEmail:
		recipient = p.Email
	}
	if recipient == "" {
		return RequestFor(p, message, t)
	}
	req := Request{UserID: p.ID, Channel: channel, Recipient: recipient, Message: message}
	if t != nil {
		id := t.ID
		req.TransactionID = &id
	}
	return req, true
}

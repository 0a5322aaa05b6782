package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioSender delivers SMS notifications through the Twilio Messages API.
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    twilioBaseURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type TwilioError struct {
	Status int
	Body   string
}

func (e *TwilioError) Error() string {
	return fmt.Sprintf("twilio send failed: status %d", e.Status)
}

func (t *TwilioSender) Send(ctx context.Context, n *domain.Notification) error {
	if n.Channel != domain.NotificationChannelSMS {
		return fmt.Errorf("TwilioSender: unsupported channel %s", n.Channel)
	}

	form := url.Values{}
	form.Set("From", t.From)
	form.Set("To", n.Recipient)
	form.Set("Body", n.Message)

	endpoint := t.BaseURL + "/Accounts/" + t.AccountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("TwilioSender: %w", err)
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("TwilioSender: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &TwilioError{Status: res.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

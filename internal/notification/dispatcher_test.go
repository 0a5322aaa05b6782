package notification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

type attempt struct {
	id  uuid.UUID
	err error
}

type fakeRepo struct {
	created   []domain.Notification
	attempts  []attempt
	createErr error
}

func (f *fakeRepo) Create(_ context.Context, n *domain.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeRepo) RecordAttempt(_ context.Context, id uuid.UUID, deliveryErr error, _ time.Time) error {
	f.attempts = append(f.attempts, attempt{id: id, err: deliveryErr})
	return nil
}

type fakeMarker struct {
	marked []uuid.UUID
}

func (f *fakeMarker) MarkNotificationSent(_ context.Context, id uuid.UUID) error {
	f.marked = append(f.marked, id)
	return nil
}

type stubSender struct {
	err  error
	sent []*domain.Notification
}

func (s *stubSender) Send(_ context.Context, n *domain.Notification) error {
	s.sent = append(s.sent, n)
	return s.err
}

func validRequest() Request {
	txID := uuid.New()
	return Request{
		UserID:        uuid.New(),
		Channel:       domain.NotificationChannelEmail,
		Recipient:     "user@example.com",
		Message:       "hello",
		TransactionID: &txID,
	}
}

func TestSend_Delivered(t *testing.T) {
	repo, marker, sender := &fakeRepo{}, &fakeMarker{}, &stubSender{}
	d := NewDispatcher(repo, marker, sender)
	req := validRequest()

	n, err := d.Send(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, n.SentAt)
	assert.Equal(t, 1, n.Attempts)

	require.Len(t, repo.created, 1)
	require.Len(t, repo.attempts, 1)
	assert.NoError(t, repo.attempts[0].err)
	assert.Equal(t, []uuid.UUID{*req.TransactionID}, marker.marked)
}

func TestSend_DeliveryFailureIsNotAnError(t *testing.T) {
	repo, marker := &fakeRepo{}, &fakeMarker{}
	d := NewDispatcher(repo, marker, &stubSender{err: errors.New("smtp down")})

	n, err := d.Send(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Nil(t, n.SentAt)
	require.NotNil(t, n.LastError)
	assert.Equal(t, "smtp down", *n.LastError)

	require.Len(t, repo.attempts, 1)
	assert.Error(t, repo.attempts[0].err)
	assert.Empty(t, marker.marked)
}

func TestSend_PersistenceFailureIsReturned(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(&fakeRepo{createErr: errors.New("db down")}, nil, sender)

	_, err := d.Send(context.Background(), validRequest())
	require.Error(t, err)
	assert.Empty(t, sender.sent, "nothing is delivered without a stored row")
}

func TestSend_Validation(t *testing.T) {
	d := NewDispatcher(&fakeRepo{}, nil, &stubSender{})

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{name: "missing user", mutate: func(r *Request) { r.UserID = uuid.Nil }},
		{name: "blank recipient", mutate: func(r *Request) { r.Recipient = "  " }},
		{name: "blank message", mutate: func(r *Request) { r.Message = "" }},
		{name: "unknown channel", mutate: func(r *Request) { r.Channel = "pigeon" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := d.Send(context.Background(), req)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestNotify_SwallowsErrors(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(&fakeRepo{createErr: errors.New("db down")}, nil, sender)
	assert.NotPanics(t, func() {
		d.Notify(context.Background(), validRequest())
	})
	d.Wait()
	assert.Empty(t, sender.sent)
}

// blockingSender holds every delivery until released or its context ends.
type blockingSender struct {
	release     chan struct{}
	hadDeadline bool
}

func (s *blockingSender) Send(ctx context.Context, _ *domain.Notification) error {
	_, s.hadDeadline = ctx.Deadline()
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestNotify_DoesNotWaitForDelivery(t *testing.T) {
	repo, marker := &fakeRepo{}, &fakeMarker{}
	sender := &blockingSender{release: make(chan struct{})}
	d := NewDispatcher(repo, marker, sender)
	req := validRequest()

	returned := make(chan struct{})
	go func() {
		d.Notify(context.Background(), req)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a stalled provider")
	}
	require.Len(t, repo.created, 1, "row is written before Notify returns")

	close(sender.release)
	d.Wait()

	assert.True(t, sender.hadDeadline, "provider call is bounded")
	require.Len(t, repo.attempts, 1)
	assert.NoError(t, repo.attempts[0].err)
	assert.Equal(t, []uuid.UUID{*req.TransactionID}, marker.marked)
}

func TestNotify_SurvivesCancelledRequest(t *testing.T) {
	repo := &fakeRepo{}
	sender := &stubSender{}
	d := NewDispatcher(repo, nil, sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, validRequest())
	d.Wait()

	require.Len(t, repo.created, 1)
	require.Len(t, sender.sent, 1)
	require.Len(t, repo.attempts, 1)
	assert.NoError(t, repo.attempts[0].err)
}

func TestChannelRouter(t *testing.T) {
	sms, fallback := &stubSender{}, &stubSender{}
	r := &ChannelRouter{
		Routes:  map[domain.NotificationChannel]Sender{domain.NotificationChannelSMS: sms},
		Default: fallback,
	}

	require.NoError(t, r.Send(context.Background(), &domain.Notification{Channel: domain.NotificationChannelSMS}))
	require.NoError(t, r.Send(context.Background(), &domain.Notification{Channel: domain.NotificationChannelEmail}))
	assert.Len(t, sms.sent, 1)
	assert.Len(t, fallback.sent, 1)

	empty := &ChannelRouter{}
	assert.Error(t, empty.Send(context.Background(), &domain.Notification{Channel: domain.NotificationChannelSMS}))
}

type recordingPublisher struct {
	key   string
	event any
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.key, p.event = key, event
	return p.err
}

func TestKafkaSender(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewKafkaSender(pub)
	txID := uuid.New()
	n := &domain.Notification{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		TransactionID: &txID,
		Channel:       domain.NotificationChannelEmail,
		Recipient:     "a@b.co",
		Message:       "hi",
	}

	require.NoError(t, s.Send(context.Background(), n))
	assert.Equal(t, n.UserID.String(), pub.key)
	ev, ok := pub.event.(Event)
	require.True(t, ok)
	assert.Equal(t, "email", ev.Type)
	require.NotNil(t, ev.TransactionID)
	assert.Equal(t, txID.String(), *ev.TransactionID)
	assert.Equal(t, 1, ev.Attempt)

	pub.err = errors.New("broker unavailable")
	assert.Error(t, s.Send(context.Background(), n))
}

func TestTwilioSender(t *testing.T) {
	var got url.Values
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		user, pass, _ = r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		got, _ = url.ParseQuery(string(body))
		if got.Get("To") == "+1000" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":21211}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "secret", "+15550001111")
	s.BaseURL = srv.URL

	err := s.Send(context.Background(), &domain.Notification{
		Channel: domain.NotificationChannelSMS, Recipient: "+2348000000000", Message: "funds received",
	})
	require.NoError(t, err)
	assert.Equal(t, "AC123", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, "+15550001111", got.Get("From"))
	assert.Equal(t, "+2348000000000", got.Get("To"))
	assert.Equal(t, "funds received", got.Get("Body"))

	err = s.Send(context.Background(), &domain.Notification{
		Channel: domain.NotificationChannelSMS, Recipient: "+1000", Message: "x",
	})
	var twErr *TwilioError
	require.ErrorAs(t, err, &twErr)
	assert.Equal(t, http.StatusBadRequest, twErr.Status)

	err = s.Send(context.Background(), &domain.Notification{Channel: domain.NotificationChannelEmail})
	assert.Error(t, err)
}

func TestMessages(t *testing.T) {
	tx := &domain.Transaction{
		ID:       uuid.New(),
		Type:     domain.TransactionTypeWithdrawal,
		Amount:   decimal.RequireFromString("150"),
		Currency: domain.CurrencyUSD,
	}
	assert.Equal(t, "Your withdrawal of USD 150.00 has been approved.", Reviewed(tx, true))
	assert.Equal(t, "Your withdrawal of USD 150.00 has been rejected.", Reviewed(tx, false))
	assert.Equal(t, domain.NotificationChannelSMS, ChannelForReview(tx.Type))
	assert.Equal(t, domain.NotificationChannelEmail, ChannelForReview(domain.TransactionTypeDeposit))

	assert.Equal(t, "0.00100000", FormatAmount(decimal.RequireFromString("0.001"), domain.CurrencyBTC))
}

func TestRequestOn_FallsBackToPreferredContact(t *testing.T) {
	p := &domain.Profile{ID: uuid.New(), Email: "user@example.com"}

	req, ok := RequestOn(p, domain.NotificationChannelSMS, "msg", nil)
	require.True(t, ok)
	assert.Equal(t, domain.NotificationChannelEmail, req.Channel)
	assert.Equal(t, "user@example.com", req.Recipient)

	phone := "+27110000000"
	p.Phone = &phone
	req, ok = RequestOn(p, domain.NotificationChannelSMS, "msg", nil)
	require.True(t, ok)
	assert.Equal(t, domain.NotificationChannelSMS, req.Channel)
	assert.Equal(t, phone, req.Recipient)

	_, ok = RequestFor(&domain.Profile{ID: uuid.New()}, "msg", nil)
	assert.False(t, ok)
}

package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gvbank-ledger/internal/auth"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
)

// serve mounts h at pattern so chi URL params resolve, then issues one
// request as the given caller. A nil caller sends an anonymous request.
func serve(t *testing.T, method, pattern, target, body string, caller *auth.Claims, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if caller != nil {
		req = req.WithContext(auth.ContextWithClaims(req.Context(), caller))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func customer() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Email: "customer@test.com", Role: domain.RoleUser}
}

func administrator() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Email: "admin@test.com", Role: domain.RoleAdmin}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

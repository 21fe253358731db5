package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/platform/resilience"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL + "/",
		BotToken:       "123:secret",
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	require.NoError(t, err)
	return client
}

func sampleChange() usecase.RoleChange {
	return usecase.RoleChange{
		ParticipantID: 42,
		ChatID:        777,
		Name:          "Ayu",
		SeasonName:    "March 2026",
		From:          hierarchy.RoleSubcaptain,
		To:            hierarchy.RoleCaptain,
	}
}

func TestClient_NotifyRoleChangeSendsMessage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var got sendMessageRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}, resilience.DefaultCircuitBreakerConfig())

	require.NoError(t, client.NotifyRoleChange(context.Background(), sampleChange()))
	assert.Equal(t, "/bot123:secret/sendMessage", gotPath)
	assert.Equal(t, int64(777), got.ChatID)
	assert.Contains(t, got.Text, "promoted from subcaptain to captain")
	assert.Contains(t, got.Text, "March 2026")
}

func TestClient_RejectedMessageDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	for range 3 {
		err := client.NotifyRoleChange(context.Background(), sampleChange())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errTelegramRejected), "unexpected error: %v", err)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, resilience.CircuitStateClosed, client.breaker.State())
}

func TestClient_ServerErrorsOpenBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	for range 2 {
		err := client.NotifyRoleChange(context.Background(), sampleChange())
		assert.True(t, errors.Is(err, errTelegramTransient), "unexpected error: %v", err)
	}

	err := client.NotifyRoleChange(context.Background(), sampleChange())
	assert.True(t, errors.Is(err, usecase.ErrDependencyUnavailable), "unexpected error: %v", err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RequiresChatID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Errorf("no request expected")
	}, resilience.DefaultCircuitBreakerConfig())

	change := sampleChange()
	change.ChatID = 0
	require.Error(t, client.NotifyRoleChange(context.Background(), change))
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{BaseURL: "https://api.telegram.org"})
	require.Error(t, err)

	_, err = NewClient(ClientConfig{BotToken: "t", BaseURL: "ftp://api.telegram.org"})
	require.Error(t, err)

	client, err := NewClient(ClientConfig{BotToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, client.baseURL)
}

func TestRenderRoleChange(t *testing.T) {
	t.Parallel()

	demoted := sampleChange()
	demoted.From, demoted.To = hierarchy.RoleCaptain, hierarchy.RoleMember
	assert.Contains(t, RenderRoleChange(demoted), "next season is member (previously captain)")

	kept := sampleChange()
	kept.From, kept.To = hierarchy.RoleCaptain, hierarchy.RoleCaptain
	assert.Contains(t, RenderRoleChange(kept), "keep your role as captain")

	anon := sampleChange()
	anon.Name = "  "
	assert.True(t, strings.HasPrefix(RenderRoleChange(anon), "Hi there,"))
}

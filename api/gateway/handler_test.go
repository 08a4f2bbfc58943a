package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/jit-activation-gateway/activator"
	"github.com/ruteri/jit-activation-gateway/api"
	"github.com/ruteri/jit-activation-gateway/cryptoutils"
	"github.com/ruteri/jit-activation-gateway/interfaces"
	"github.com/ruteri/jit-activation-gateway/orchestrator"
	"github.com/ruteri/jit-activation-gateway/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("webhook-test-secret")

func setupHandler(t *testing.T, scaler *orchestrator.MockScaler, cfg Config) http.Handler {
	t.Helper()
	return setupHandlerWithActivator(t, scaler, cfg, activator.Config{})
}

func setupHandlerWithActivator(t *testing.T, scaler *orchestrator.MockScaler, cfg Config, actCfg activator.Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	table, err := resolver.NewAliasTable(resolver.DefaultMappings())
	require.NoError(t, err)

	act := activator.New(table, scaler, actCfg, nil, logger)
	handler := NewHandler(act, cfg, nil, logger)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func webhookRequest(alias string, body []byte, signature, event string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/github/"+alias, bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(cryptoutils.SignatureHeader, signature)
	}
	if event != "" {
		req.Header.Set("X-GitHub-Event", event)
	}
	return req
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) api.ActivationResponse {
	t.Helper()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	var resp api.ActivationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandleStart_Success(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	scaler.On("Scale", mock.Anything, interfaces.ServiceName("minio_minio"), uint64(1)).Return("", nil).Once()

	router := setupHandler(t, scaler, Config{Secret: testSecret})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/start/minio", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, api.StatusSuccess, resp.Status)
	assert.Equal(t, "minio_minio", resp.Service)
	scaler.AssertExpectations(t)
}

func TestHandleStart_OrchestratorFailure(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	scaler.On("Scale", mock.Anything, interfaces.ServiceName("nosuch"), uint64(1)).
		Return("", orchestrator.ErrServiceNotFound).Once()

	router := setupHandler(t, scaler, Config{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/start/nosuch", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, api.StatusError, resp.Status)
	assert.Equal(t, "nosuch", resp.Service)
	assert.Contains(t, resp.Message, orchestrator.ErrServiceNotFound.Error())
	scaler.AssertNumberOfCalls(t, "Scale", 1)
}

func TestHandleStart_ScaleTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	scaler := new(orchestrator.MockScaler)
	scaler.On("Scale", mock.Anything, interfaces.ServiceName("minio_minio"), uint64(1)).
		Run(func(mock.Arguments) { <-release }).
		Return("", nil).Once()

	router := setupHandlerWithActivator(t, scaler, Config{}, activator.Config{Timeout: 50 * time.Millisecond})

	start := time.Now()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/start/minio", nil))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, api.StatusError, resp.Status)
	assert.Contains(t, resp.Message, activator.ErrScaleTimeout.Error())
	assert.Less(t, elapsed, 2*time.Second)
}

func TestHandleStart_MissingAlias(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	router := setupHandler(t, scaler, Config{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/start", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "missing alias", decodeResponse(t, rr).Message)
	scaler.AssertNotCalled(t, "Scale", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_ValidSignature(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	scaler.On("Scale", mock.Anything, interfaces.ServiceName("forgejo_forgejo"), uint64(1)).Return("", nil).Once()

	router := setupHandler(t, scaler, Config{Secret: testSecret})

	body := []byte(`{"ref":"refs/heads/main"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest("forgejo", body, cryptoutils.SignPayload(testSecret, body), "push"))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, api.StatusSuccess, resp.Status)
	assert.Equal(t, "forgejo_forgejo", resp.Service)
	scaler.AssertExpectations(t)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"wrong secret", cryptoutils.SignPayload([]byte("other-secret"), body)},
		{"other body", cryptoutils.SignPayload(testSecret, []byte(`{"ref":"refs/heads/dev"}`))},
		{"missing", ""},
		{"no prefix", strings.TrimPrefix(cryptoutils.SignPayload(testSecret, body), cryptoutils.SignaturePrefix)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaler := new(orchestrator.MockScaler)
			router := setupHandler(t, scaler, Config{Secret: testSecret})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, webhookRequest("forgejo", body, tt.signature, "push"))

			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, api.StatusError, decodeResponse(t, rr).Status)
			scaler.AssertNotCalled(t, "Scale", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleWebhook_NoSecretFailsOpen(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	scaler.On("Scale", mock.Anything, interfaces.ServiceName("forgejo_forgejo"), uint64(1)).Return("", nil).Once()

	router := setupHandler(t, scaler, Config{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest("forgejo", []byte(`{}`), "", "push"))

	assert.Equal(t, http.StatusOK, rr.Code)
	scaler.AssertExpectations(t)
}

func TestHandleWebhook_EventFilter(t *testing.T) {
	body := []byte(`{"zen":"Keep it logically awesome."}`)

	tests := []struct {
		name     string
		header   string
		event    string
		activate bool
	}{
		{"push", "X-GitHub-Event", "push", true},
		{"pull request", "X-GitHub-Event", "pull_request", true},
		{"release", "X-GitHub-Event", "release", true},
		{"ping", "X-GitHub-Event", "ping", false},
		{"issues", "X-GitHub-Event", "issues", false},
		{"gitea push", "X-Gitea-Event", "push", true},
		{"gogs star", "X-Gogs-Event", "star", false},
		{"no event header", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaler := new(orchestrator.MockScaler)
			if tt.activate {
				scaler.On("Scale", mock.Anything, interfaces.ServiceName("forgejo_forgejo"), uint64(1)).Return("", nil).Once()
			}
			router := setupHandler(t, scaler, Config{Secret: testSecret})

			req := webhookRequest("forgejo", body, cryptoutils.SignPayload(testSecret, body), "")
			if tt.header != "" {
				req.Header.Set(tt.header, tt.event)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			resp := decodeResponse(t, rr)
			if tt.activate {
				assert.Equal(t, api.StatusSuccess, resp.Status)
				scaler.AssertExpectations(t)
			} else {
				assert.Equal(t, api.StatusIgnored, resp.Status)
				assert.Equal(t, tt.event, resp.Event)
				scaler.AssertNotCalled(t, "Scale", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandleWebhook_CustomTriggerEvents(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	router := setupHandler(t, scaler, Config{Secret: testSecret, TriggerEvents: []string{" workflow_run "}})

	body := []byte(`{}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest("forgejo", body, cryptoutils.SignPayload(testSecret, body), "push"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, api.StatusIgnored, decodeResponse(t, rr).Status)
	scaler.AssertNotCalled(t, "Scale", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_EmptyBody(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	router := setupHandler(t, scaler, Config{Secret: testSecret})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest("forgejo", nil, cryptoutils.SignPayload(testSecret, nil), "push"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "empty body", decodeResponse(t, rr).Message)
	scaler.AssertNotCalled(t, "Scale", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_BodyTooLarge(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	router := setupHandler(t, scaler, Config{Secret: testSecret})

	body := bytes.Repeat([]byte("a"), MaxBodySize+1)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest("forgejo", body, cryptoutils.SignPayload(testSecret, body), "push"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	scaler.AssertNotCalled(t, "Scale", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_OrchestratorFailure(t *testing.T) {
	scaler := new(orchestrator.MockScaler)
	scaler.On("Scale", mock.Anything, interfaces.ServiceName("vaultwarden_vaultwarden"), uint64(1)).
		Return("Error response from daemon", errors.New("exit status 1")).Once()

	router := setupHandler(t, scaler, Config{Secret: testSecret})

	body := []byte(`{}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, webhookRequest("vaultwarden", body, cryptoutils.SignPayload(testSecret, body), "release"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, api.StatusError, decodeResponse(t, rr).Status)
	scaler.AssertNumberOfCalls(t, "Scale", 1)
}

type stubActivator struct {
	result interfaces.ActivationResult
}

func (s stubActivator) Activate(ctx context.Context, tier interfaces.TrustTier, alias interfaces.ServiceAlias) interfaces.ActivationResult {
	return s.result
}

func TestWriteResult_StatusMapping(t *testing.T) {
	tests := []struct {
		outcome interfaces.Outcome
		code    int
		status  string
	}{
		{interfaces.OutcomeActivated, http.StatusOK, api.StatusSuccess},
		{interfaces.OutcomeIgnored, http.StatusOK, api.StatusIgnored},
		{interfaces.OutcomeUnauthorized, http.StatusForbidden, api.StatusError},
		{interfaces.OutcomeOrchestratorFailure, http.StatusInternalServerError, api.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			h := NewHandler(stubActivator{result: interfaces.ActivationResult{Outcome: tt.outcome, Service: "svc"}}, Config{}, nil, logger)
			r := chi.NewRouter()
			h.RegisterRoutes(r)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/start/svc", nil))

			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.status, decodeResponse(t, rr).Status)
		})
	}
}

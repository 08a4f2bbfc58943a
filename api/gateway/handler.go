// Package gateway implements the HTTP entry points that trigger service
// activation.
//
// Two entries exist, differing only in trust tier:
//
//   - POST /start/{alias}: open, no authentication. Intended for operator
//     dashboards and other trusted callers on the internal network.
//   - POST /github/{alias}: authenticated. The raw body must carry a valid
//     X-Hub-Signature-256 HMAC-SHA256 signature made with the shared secret.
//
// Both entries converge on interfaces.Activator. The handler is the only place
// where activation outcomes are translated to HTTP status codes:
//
//	OutcomeActivated           -> 200
//	OutcomeIgnored             -> 200
//	OutcomeUnauthorized        -> 403
//	OutcomeOrchestratorFailure -> 500
//
// Requests with an empty alias or, on the authenticated entry, an empty body
// are rejected with 400 before any other processing.
package gateway

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/jit-activation-gateway/api"
	"github.com/ruteri/jit-activation-gateway/cryptoutils"
	"github.com/ruteri/jit-activation-gateway/interfaces"
	"github.com/ruteri/jit-activation-gateway/metrics"
)

const (
	// MaxBodySize is the largest webhook payload accepted (25 MiB, GitHub's limit).
	MaxBodySize = 25 << 20

	PingEvent = "ping"
)

// EventHeaders are checked in order for the webhook event type.
var EventHeaders = []string{"X-GitHub-Event", "X-Gitea-Event", "X-Gogs-Event"}

// DefaultTriggerEvents returns the event types that activate a service.
func DefaultTriggerEvents() []string {
	return []string{"push", "pull_request", "release"}
}

type Config struct {
	// Secret is the shared webhook secret. Empty disables verification.
	Secret []byte
	// TriggerEvents lists event types that activate. Empty means DefaultTriggerEvents.
	TriggerEvents []string
}

// Handler serves the activation routes.
type Handler struct {
	activator     interfaces.Activator
	secret        []byte
	triggerEvents map[string]struct{}
	metrics       *metrics.ActivationMetrics
	log           *slog.Logger
}

// NewHandler creates a Handler. m may be nil.
func NewHandler(activator interfaces.Activator, cfg Config, m *metrics.ActivationMetrics, log *slog.Logger) *Handler {
	events := cfg.TriggerEvents
	if len(events) == 0 {
		events = DefaultTriggerEvents()
	}
	triggerEvents := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			triggerEvents[e] = struct{}{}
		}
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Handler{
		activator:     activator,
		secret:        secret,
		triggerEvents: triggerEvents,
		metrics:       m,
		log:           log,
	}
}

// RegisterRoutes mounts the activation routes on r.
// Bare /start and /github are routed so an empty alias gets a 400 instead of a 404.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start/{alias}", h.HandleStart)
	r.Post("/start", h.handleMissingAlias)
	r.Post("/github/{alias}", h.HandleWebhook)
	r.Post("/github", h.handleMissingAlias)
}

// HandleStart activates the service named by the alias path parameter
// without any authentication. The request body is ignored.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, interfaces.ActivationRequest{
		Tier:  interfaces.TierOpen,
		Alias: interfaces.ServiceAlias(chi.URLParam(r, "alias")),
	})
}

// HandleWebhook activates the service named by the alias path parameter after
// verifying the X-Hub-Signature-256 header against the raw body.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	alias := interfaces.ServiceAlias(chi.URLParam(r, "alias"))
	if alias == "" {
		h.handleMissingAlias(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			api.WriteJSON(w, http.StatusRequestEntityTooLarge, api.ActivationResponse{
				Status:  api.StatusError,
				Message: fmt.Sprintf("body exceeds %d bytes", maxBytesErr.Limit),
			})
			return
		}
		h.log.Warn("Failed to read webhook body", "err", err, "remoteAddr", r.RemoteAddr)
		api.WriteJSON(w, http.StatusBadRequest, api.ActivationResponse{
			Status:  api.StatusError,
			Message: "failed to read body",
		})
		return
	}
	if len(body) == 0 {
		api.WriteJSON(w, http.StatusBadRequest, api.ActivationResponse{
			Status:  api.StatusError,
			Message: "empty body",
		})
		return
	}

	h.process(w, r, interfaces.ActivationRequest{
		Tier:      interfaces.TierAuthenticated,
		Alias:     alias,
		Body:      body,
		Signature: r.Header.Get(cryptoutils.SignatureHeader),
		Event:     webhookEvent(r.Header),
	})
}

// process runs an activation request through authorization, event filtering
// and activation, and writes the response.
func (h *Handler) process(w http.ResponseWriter, r *http.Request, req interfaces.ActivationRequest) {
	if req.Alias == "" {
		h.handleMissingAlias(w, r)
		return
	}

	if req.Tier == interfaces.TierAuthenticated {
		if !cryptoutils.VerifySignature(h.secret, req.Body, req.Signature) {
			h.log.Warn("Invalid signature", "alias", req.Alias, "remoteAddr", r.RemoteAddr)
			h.observe(req, interfaces.OutcomeUnauthorized)
			api.WriteJSON(w, http.StatusForbidden, api.ActivationResponse{
				Status:  api.StatusError,
				Message: "invalid signature",
			})
			return
		}

		if !h.triggers(req.Event) {
			h.log.Info("Ignoring webhook event", "alias", req.Alias, "event", req.Event)
			h.observe(req, interfaces.OutcomeIgnored)
			api.WriteJSON(w, http.StatusOK, api.ActivationResponse{
				Status:  api.StatusIgnored,
				Event:   req.Event,
				Message: fmt.Sprintf("event %q does not trigger activation", req.Event),
			})
			return
		}
	}

	result := h.activator.Activate(r.Context(), req.Tier, req.Alias)
	h.writeResult(w, result)
}

// observe counts requests that end before reaching the activator. They are
// labeled with the alias since no service name has been resolved.
func (h *Handler) observe(req interfaces.ActivationRequest, outcome interfaces.Outcome) {
	h.metrics.ObserveOutcome(req.Alias.String(), req.Tier.String(), outcome.String())
}

// triggers reports whether an event activates. Requests without an event
// header come from generic senders and always activate.
func (h *Handler) triggers(event string) bool {
	if event == "" {
		return true
	}
	if event == PingEvent {
		return false
	}
	_, ok := h.triggerEvents[event]
	return ok
}

func (h *Handler) handleMissingAlias(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusBadRequest, api.ActivationResponse{
		Status:  api.StatusError,
		Message: "missing alias",
	})
}

func (h *Handler) writeResult(w http.ResponseWriter, result interfaces.ActivationResult) {
	resp := api.ActivationResponse{
		Service: result.Service.String(),
		Message: result.Message,
	}

	code := statusCode(result.Outcome)
	switch result.Outcome {
	case interfaces.OutcomeActivated:
		resp.Status = api.StatusSuccess
	case interfaces.OutcomeIgnored:
		resp.Status = api.StatusIgnored
	default:
		resp.Status = api.StatusError
	}

	api.WriteJSON(w, code, resp)
}

func statusCode(outcome interfaces.Outcome) int {
	switch outcome {
	case interfaces.OutcomeActivated, interfaces.OutcomeIgnored:
		return http.StatusOK
	case interfaces.OutcomeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func webhookEvent(h http.Header) string {
	for _, name := range EventHeaders {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

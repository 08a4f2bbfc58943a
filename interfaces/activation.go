package interfaces

import "context"

// ServiceAlias is the short, caller-facing identifier of a service,
// usually taken from a URL path segment.
type ServiceAlias string

// ServiceName is the fully-qualified name the orchestrator knows a service by.
type ServiceName string

func (a ServiceAlias) String() string { return string(a) }
func (n ServiceName) String() string  { return string(n) }

// TrustTier says whether a request arrived on an open or a signature-authenticated route.
type TrustTier int

const (
	TierOpen TrustTier = iota
	TierAuthenticated
)

func (t TrustTier) String() string {
	switch t {
	case TierOpen:
		return "open"
	case TierAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Outcome classifies how an activation request ended.
type Outcome int

const (
	// OutcomeActivated means the orchestrator applied the scale command.
	OutcomeActivated Outcome = iota
	// OutcomeUnauthorized means signature verification failed. The orchestrator was not called.
	OutcomeUnauthorized
	// OutcomeOrchestratorFailure means the scale command failed or timed out.
	OutcomeOrchestratorFailure
	// OutcomeIgnored means an authenticated event was acknowledged without activation.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeActivated:
		return "activated"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeOrchestratorFailure:
		return "orchestrator_failure"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// ActivationRequest is built per inbound request and discarded once the response is written.
type ActivationRequest struct {
	Tier  TrustTier
	Alias ServiceAlias

	// Body and Signature are only meaningful for TierAuthenticated.
	Body      []byte
	Signature string

	// Event is the webhook event type header value, if any.
	Event string
}

// ActivationResult reports the result of one activation attempt.
// Success is true if and only if Outcome is OutcomeActivated.
type ActivationResult struct {
	Outcome Outcome
	Service ServiceName
	Message string
	// Err carries the underlying diagnostic for logging. Nil on success.
	Err error
}

// Success reports whether the orchestrator applied the scale command.
func (r ActivationResult) Success() bool {
	return r.Outcome == OutcomeActivated
}

// ServiceResolver maps caller-facing aliases to orchestrator service names.
// Implementations must be pure: the same alias always yields the same name.
type ServiceResolver interface {
	Resolve(alias ServiceAlias) ServiceName
}

// Activator brings a service from zero to its activation replica count.
type Activator interface {
	Activate(ctx context.Context, tier TrustTier, alias ServiceAlias) ActivationResult
}

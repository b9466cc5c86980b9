package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/infrastructure/resilience"
)

// transientConnStates are the client errors seen while the broker restarts
// or a publish races a reconnect. Retrying a chain request is safe: the
// worker side persists through idempotency-keyed appends.
var transientConnStates = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
}

func classifyQueueError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The caller gave up; neither a retry nor a breaker penalty applies.
		return resilience.ErrorClassification{}
	case isTransient(err) || resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		// Bad subject, oversized payload and the like. Retrying would
		// republish the same broken message.
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

func isTransient(err error) bool {
	for _, state := range transientConnStates {
		if errors.Is(err, state) {
			return true
		}
	}
	return false
}

// asQueueError converts exhausted transient failures into the temporary
// domain kind, which the API maps to 503 rather than 500.
func asQueueError(op string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if isTransient(err) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, op, err)
	}
	return err
}

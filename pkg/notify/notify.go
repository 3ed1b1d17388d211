// Package notify delivers rendered notifications to the push provider.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Priority follows the provider's -2..2 scale
type Priority int

const (
	PriorityVeryLow   Priority = -2
	PriorityModerate  Priority = -1
	PriorityNormal    Priority = 0
	PriorityHigh      Priority = 1
	PriorityEmergency Priority = 2
)

func (p Priority) String() string {
	switch p {
	case PriorityVeryLow:
		return "VeryLow"
	case PriorityModerate:
		return "Moderate"
	case PriorityNormal:
		return "Normal"
	case PriorityHigh:
		return "High"
	case PriorityEmergency:
		return "Emergency"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Message is a rendered notification
type Message struct {
	Application string   `json:"application"`
	Event       string   `json:"event"`
	Description string   `json:"description"`
	URL         string   `json:"url,omitempty"`
	Priority    Priority `json:"priority"`
}

// Client sends a single message to the provider
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Kind separates failures worth retrying from configuration problems
type Kind int

const (
	Transient Kind = iota
	Permanent
)

func (k Kind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// DeliveryError is returned by clients when a send fails
type DeliveryError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery error (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery error: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err should not be retried. Errors that are not
// a DeliveryError are treated as transient.
func IsPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == Permanent
}

// Nop performs no network call and always succeeds
type Nop struct{}

func (Nop) Send(_ context.Context, _ Message) error { return nil }

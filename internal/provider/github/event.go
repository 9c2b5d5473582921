package github

import "go.uber.org/zap"

// Event is a received GitHub webhook delivery.
type Event struct {
	// DeliveryID is the unique github ID of the event
	DeliveryID string
	// Type is the github webhook event type, the value of the
	// X-GitHub-Event header
	Type string
	// JSON is the event payload
	JSON      []byte
	LogFields []zap.Field
}

func (e *Event) String() string {
	return e.Type + " (deliveryID: " + e.DeliveryID + ")"
}

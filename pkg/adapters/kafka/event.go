// Package kafka publishes confirmed submissions to a Kafka topic and consumes
// them for downstream processing such as answer analysis.
package kafka

import (
	"github.com/aretw0/funnel/pkg/domain"
)

// EventSubmissionRecorded is the type of the event emitted for every confirmed lead.
const EventSubmissionRecorded = "submission.recorded"

// Header keys set on every message.
const (
	HeaderEventType = "event-type"
	HeaderOrigin    = "origin"
	HeaderFunnelID  = "funnel-id"
)

// Event is the JSON payload of a submission message.
type Event struct {
	Type       string            `json:"type"`
	Submission domain.Submission `json:"submission"`
}

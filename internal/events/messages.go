// Package events publishes ledger domain events to a message broker.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Routing keys used on the ledger exchange.
const (
	RoutingKeyInstanceMaterialized = "transaction.materialized"
	RoutingKeyTemplateExpired      = "template.expired"
)

// Event is any message that can be published.
type Event interface {
	RoutingKey() string
}

// InstanceMaterialized is emitted after a recurring template produced a
// concrete transaction and its lastProcessedDate was advanced.
type InstanceMaterialized struct {
	UserID         string          `json:"user_id"`
	TemplateID     string          `json:"template_id"`
	InstanceID     string          `json:"instance_id"`
	CounterpartyID string          `json:"counterparty_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	OccurrenceDate time.Time       `json:"occurrence_date"`
	Timestamp      time.Time       `json:"timestamp"`
}

func (InstanceMaterialized) RoutingKey() string { return RoutingKeyInstanceMaterialized }

// TemplateExpired is emitted once per template, by the first processing pass
// that finds it past its end date.
type TemplateExpired struct {
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id"`
	EndDate    time.Time `json:"end_date"`
	Timestamp  time.Time `json:"timestamp"`
}

func (TemplateExpired) RoutingKey() string { return RoutingKeyTemplateExpired }

// Encode converts an event to its JSON wire form.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

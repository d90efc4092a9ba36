package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInstanceMaterialized_Encode(t *testing.T) {
	e := InstanceMaterialized{
		UserID:         "user-1",
		TemplateID:     "tpl",
		InstanceID:     "inst",
		CounterpartyID: "cp",
		Type:           "expense",
		Amount:         decimal.RequireFromString("12.50"),
		OccurrenceDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
	}

	if e.RoutingKey() != RoutingKeyInstanceMaterialized {
		t.Errorf("unexpected routing key %s", e.RoutingKey())
	}

	body, err := Encode(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["amount"] != "12.5" {
		t.Errorf("expected amount encoded as decimal string, got %v", fields["amount"])
	}
	if fields["template_id"] != "tpl" || fields["instance_id"] != "inst" {
		t.Errorf("unexpected ids: %v", fields)
	}
}

func TestNewPublisher_WithoutURL(t *testing.T) {
	p, err := NewPublisher("", "debtbook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", p)
	}
	if err := p.Publish(context.Background(), TemplateExpired{TemplateID: "tpl"}); err != nil {
		t.Errorf("expected nop publish to succeed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("expected nop close to succeed, got %v", err)
	}
}

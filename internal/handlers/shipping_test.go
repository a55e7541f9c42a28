package handlers

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sakarela/internal/econt"
	"sakarela/internal/models"
)

type fakeCourier struct {
	calls  int
	result econt.LabelResult
	err    error
}

func (f *fakeCourier) CreateLabel(ctx context.Context, order models.Order) (econt.LabelResult, error) {
	f.calls++
	return f.result, f.err
}

func TestEnsureShipmentLabelSkipsLabelledOrders(t *testing.T) {
	courier := &fakeCourier{}
	order := models.Order{
		ID:          primitive.NewObjectID(),
		ShipmentNum: "1052000000001",
		LabelURL:    "https://example.com/label.pdf",
	}

	// A labelled order must return before any db or courier access, so a
	// nil database is fine here.
	got, err := ensureShipmentLabel(context.Background(), nil, courier, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if courier.calls != 0 {
		t.Fatalf("courier was called %d times for an already labelled order", courier.calls)
	}
	if got.ShipmentNum != order.ShipmentNum || got.LabelURL != order.LabelURL {
		t.Fatalf("order mutated: %+v", got)
	}
}

func TestEnsureShipmentLabelPropagatesCourierFailure(t *testing.T) {
	courier := &fakeCourier{err: errors.New("courier down")}
	order := models.Order{ID: primitive.NewObjectID()}

	// The courier fails before any database write is attempted.
	_, err := ensureShipmentLabel(context.Background(), nil, courier, order)
	if err == nil {
		t.Fatal("expected courier error to propagate")
	}
	if courier.calls != 1 {
		t.Fatalf("courier called %d times, want 1", courier.calls)
	}
}

package mypos

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sakarela/internal/config"
	"sakarela/internal/models"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		cfg: config.MyPOSConfig{
			BaseURL:      "https://mypos.example/vmp/checkout",
			SID:          "000000000000010",
			WalletNumber: "61938166610",
			KeyIndex:     "1",
			Currency:     "BGN",
		},
		base: "https://shop.example",
		key:  testKey(t),
	}
}

func testOrder() models.Order {
	orderID := primitive.NewObjectID()
	return models.Order{
		ID:            orderID,
		TransactionID: NewOrderReference(orderID),
		Items: []models.OrderItem{
			{Name: "Лютеница домашна", Price: 12.5, Quantity: 2, WeightGrams: 550},
		},
		Customer: models.OrderCustomer{
			FirstName: "Иван",
			LastName:  "Тестов",
			Email:     "ivan@example.com",
			Phone:     "+359888123456",
			Country:   "BGR",
			City:      "София",
			Address1:  "бул. България 1",
			PostCode:  "1404",
		},
		PaymentMethod: models.PaymentMethodCard,
		PaymentStatus: models.PaymentStatusPending,
		ShippingCost:  4.9,
	}
}

func TestBuildPurchaseAmountAndOrder(t *testing.T) {
	b := testBuilder(t)
	order := testOrder()

	ps, err := b.BuildPurchase(order)
	if err != nil {
		t.Fatalf("build purchase: %v", err)
	}

	amount, ok := ps.Get(FieldAmount)
	if !ok || amount != "29.90" {
		t.Fatalf("expected Amount=29.90 (2×12.50 + 4.90 shipping), got %q", amount)
	}

	fields := ps.Fields()
	if fields[0].Key != "IPCmethod" || fields[0].Value != "IPCPurchase" {
		t.Fatalf("expected IPCmethod first, got %+v", fields[0])
	}
	if last := fields[len(fields)-1]; last.Key != FieldSignature || last.Value == "" {
		t.Fatalf("expected non-empty Signature last, got %+v", last)
	}

	// One row per item plus the synthetic shipping row.
	if count, _ := ps.Get("CartItems"); count != "2" {
		t.Fatalf("expected CartItems=2, got %q", count)
	}
	if name, _ := ps.Get("Article_2"); name != "Доставка" {
		t.Fatalf("expected shipping row as Article_2, got %q", name)
	}
	if price, _ := ps.Get("Price_1"); price != "12.50" {
		t.Fatalf("expected two-decimal unit price, got %q", price)
	}
}

func TestBuildPurchaseNoShippingRowWhenFree(t *testing.T) {
	b := testBuilder(t)
	order := testOrder()
	order.ShippingCost = 0

	ps, err := b.BuildPurchase(order)
	if err != nil {
		t.Fatalf("build purchase: %v", err)
	}

	if count, _ := ps.Get("CartItems"); count != "1" {
		t.Fatalf("expected CartItems=1 without shipping, got %q", count)
	}
	if _, ok := ps.Get("Article_2"); ok {
		t.Fatal("expected no synthetic shipping row for zero shipping cost")
	}
	if amount, _ := ps.Get(FieldAmount); amount != "25.00" {
		t.Fatalf("expected Amount=25.00, got %q", amount)
	}
}

func TestBuildPurchaseRejectsBadReference(t *testing.T) {
	b := testBuilder(t)
	order := testOrder()
	order.TransactionID = "legacy-uuid-with-dashes"

	if _, err := b.BuildPurchase(order); err == nil {
		t.Fatal("expected error for a reference containing the signing delimiter")
	}
}

func TestBuildPurchaseCallbackURLsCarryReference(t *testing.T) {
	b := testBuilder(t)
	order := testOrder()

	ps, err := b.BuildPurchase(order)
	if err != nil {
		t.Fatalf("build purchase: %v", err)
	}

	for _, field := range []string{"URL_OK", "URL_Cancel", "URL_Notify"} {
		value, ok := ps.Get(field)
		if !ok {
			t.Fatalf("missing %s", field)
		}
		if !strings.Contains(value, "OrderID="+order.TransactionID) {
			t.Fatalf("%s does not carry the gateway reference: %q", field, value)
		}
	}
}

func TestOrderReferenceFormat(t *testing.T) {
	orderID := primitive.NewObjectID()
	ref := NewOrderReference(orderID)

	if len(ref) != 32 {
		t.Fatalf("expected 32-char reference, got %d", len(ref))
	}
	if strings.Contains(ref, "-") {
		t.Fatal("reference must not contain the signing delimiter")
	}
	if !strings.HasPrefix(ref, orderID.Hex()) {
		t.Fatal("reference must be derived from the order id")
	}
	if !ValidOrderReference(ref) {
		t.Fatal("generated reference must validate")
	}

	if ValidOrderReference("") {
		t.Fatal("empty reference must not validate")
	}
	if ValidOrderReference("id-with-dash") {
		t.Fatal("dashed reference must not validate")
	}
	if ValidOrderReference(strings.Repeat("a", 40)) {
		t.Fatal("overlong reference must not validate")
	}
}

package econt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sakarela/internal/config"
	"sakarela/internal/models"
)

func testClient(serverURL string) *Client {
	return NewClient(config.EcontConfig{
		APIURL:         serverURL,
		Username:       "iasp-dev",
		Password:       "secret",
		SenderName:     "Сакарела",
		SenderCity:     "София",
		SenderPostCode: "1000",
	}, 50)
}

func quoteReq() QuoteRequest {
	return QuoteRequest{WeightKg: 1.2, City: "София", PostCode: "1404", DeclaredValue: 25}
}

func TestQuoteReturnsCourierPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req labelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Mode != "calculate" {
			t.Fatalf("expected mode=calculate, got %q", req.Mode)
		}
		if req.Label.Payer != "SENDER" {
			t.Fatalf("prepaid quote should have sender as payer, got %q", req.Label.Payer)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"label": map[string]interface{}{
				"totalPrice": map[string]interface{}{"amount": 4.9, "currency": "BGN"},
			},
		})
	}))
	defer srv.Close()

	got := testClient(srv.URL).Quote(context.Background(), quoteReq())
	if got != 4.9 {
		t.Fatalf("expected 4.9, got %v", got)
	}
}

func TestQuoteFallsBackToZero(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
		{"missing total price", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"label": map[string]interface{}{}})
		}},
		{"null amount", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"label": map[string]interface{}{"totalPrice": map[string]interface{}{"currency": "BGN"}},
			})
		}},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(tt.handler)
		got := testClient(srv.URL).Quote(context.Background(), quoteReq())
		srv.Close()
		if got != 0 {
			t.Errorf("%s: expected zero fallback, got %v", tt.name, got)
		}
	}
}

func TestQuoteFallsBackToZeroWhenUnreachable(t *testing.T) {
	client := testClient("http://127.0.0.1:1")
	if got := client.Quote(context.Background(), quoteReq()); got != 0 {
		t.Fatalf("expected zero fallback for unreachable courier, got %v", got)
	}
}

func codOrder() models.Order {
	return models.Order{
		ID: primitive.NewObjectID(),
		Items: []models.OrderItem{
			{Name: "Кисело мляко", Price: 12.5, Quantity: 2, WeightGrams: 400},
		},
		Total: 25,
		Customer: models.OrderCustomer{
			FirstName: "Иван",
			LastName:  "Тестов",
			Phone:     "+359888123456",
			City:      "София",
			Address1:  "бул. България 1",
			PostCode:  "1404",
		},
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestCreateLabelCashOnDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "iasp-dev" || pass != "secret" {
			t.Fatal("expected basic auth credentials")
		}

		var req labelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Mode != "create" {
			t.Fatalf("expected mode=create, got %q", req.Mode)
		}
		if req.Label.Payer != "RECEIVER" {
			t.Fatalf("COD order must flag receiver as payer, got %q", req.Label.Payer)
		}
		if req.Label.Services.CDAmount != 25 || req.Label.Services.CDCurrency != "BGN" {
			t.Fatalf("COD order must collect the order total, got %+v", req.Label.Services)
		}
		if req.Label.WeightKg != 0.8 {
			t.Fatalf("expected aggregated weight 0.8kg, got %v", req.Label.WeightKg)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"label": map[string]interface{}{
				"shipmentNumber": "1051234567",
				"pdfURL":         "https://econt.example/labels/1051234567.pdf",
				"totalPrice":     map[string]interface{}{"amount": 5.6, "currency": "BGN"},
			},
		})
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).CreateLabel(context.Background(), codOrder())
	if err != nil {
		t.Fatalf("create label: %v", err)
	}
	if result.ShipmentNumber != "1051234567" {
		t.Fatalf("unexpected shipment number %q", result.ShipmentNumber)
	}
	if result.LabelURL == "" || result.ShippingPrice != 5.6 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCreateLabelMissingShipmentNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"label": map[string]interface{}{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateLabel(context.Background(), codOrder())
	if err != ErrNoShipmentNumber {
		t.Fatalf("expected ErrNoShipmentNumber, got %v", err)
	}
}

func TestShipmentWeightFloor(t *testing.T) {
	if got := ShipmentWeight(0); got != 0.1 {
		t.Fatalf("expected 0.1 floor for zero weight, got %v", got)
	}
	if got := ShipmentWeight(0.05); got != 0.1 {
		t.Fatalf("expected 0.1 floor, got %v", got)
	}
	if got := ShipmentWeight(2.4); got != 2.4 {
		t.Fatalf("expected weight to pass through, got %v", got)
	}
}

func TestShipmentTypeThreshold(t *testing.T) {
	c := testClient("http://unused")
	if got := c.shipmentType(50); got != shipmentTypePack {
		t.Fatalf("expected PACK at the threshold, got %q", got)
	}
	if got := c.shipmentType(50.5); got != shipmentTypeCargo {
		t.Fatalf("expected CARGO above the threshold, got %q", got)
	}
}

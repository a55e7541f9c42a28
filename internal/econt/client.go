package econt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"sakarela/internal/config"
	"sakarela/internal/models"
)

// ErrNoShipmentNumber is returned when the courier answers a label request
// without a shipment number. The caller decides whether that is fatal: the
// cash-on-delivery path surfaces it, the post-payment path logs and retries
// through staff tooling.
var ErrNoShipmentNumber = errors.New("econt: response has no shipment number")

const (
	shipmentTypePack  = "PACK"
	shipmentTypeCargo = "CARGO"

	// Couriers reject zero-weight shipments; quotes and labels never go out
	// below this floor.
	minWeightKg = 0.1
)

// Client talks to the Econt JSON services. All calls run under the request
// context with a bounded timeout; a slow courier degrades the request, it
// never hangs it.
type Client struct {
	cfg         config.EcontConfig
	parcelMaxKg float64
	http        *http.Client
}

func NewClient(cfg config.EcontConfig, parcelMaxKg float64) *Client {
	return &Client{
		cfg:         cfg,
		parcelMaxKg: parcelMaxKg,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

type addressBlock struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Country  string `json:"country"`
	City     string `json:"city"`
	PostCode string `json:"postCode"`
	Street   string `json:"street,omitempty"`
}

type labelServices struct {
	DeclaredValue float64 `json:"declaredValueAmount,omitempty"`
	CDAmount      float64 `json:"cdAmount,omitempty"`
	CDCurrency    string  `json:"cdCurrency,omitempty"`
}

type labelBody struct {
	ShipmentType string        `json:"shipmentType"`
	ServiceClass string        `json:"serviceClass"`
	PackCount    int           `json:"packCount"`
	WeightKg     float64       `json:"weight"`
	Payer        string        `json:"payer"`
	Sender       addressBlock  `json:"sender"`
	Receiver     addressBlock  `json:"receiver"`
	Description  string        `json:"shipmentDescription,omitempty"`
	Services     labelServices `json:"services"`
}

type labelRequest struct {
	Label labelBody `json:"label"`
	Mode  string    `json:"mode"`
}

type totalPrice struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

type labelResponse struct {
	Label struct {
		ShipmentNumber string      `json:"shipmentNumber"`
		PDFURL         string      `json:"pdfURL"`
		TotalPrice     *totalPrice `json:"totalPrice"`
	} `json:"label"`
}

// QuoteRequest describes a pre-order shipping price calculation.
type QuoteRequest struct {
	WeightKg      float64
	City          string
	PostCode      string
	DeclaredValue float64

	// CollectAmount is the cash-on-delivery sum the courier collects at the
	// door; zero for prepaid orders.
	CollectAmount float64
}

// Quote asks the courier for a delivery price. On any transport, HTTP,
// decode or missing-field failure it logs and returns zero: checkout must
// never hard-fail because a third-party pricing service is down.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) float64 {
	body := labelRequest{
		Label: c.buildLabel(req.WeightKg, req.City, req.PostCode, req.DeclaredValue, req.CollectAmount),
		Mode:  "calculate",
	}

	var resp labelResponse
	if err := c.post(ctx, "/Shipments/LabelService.createLabel.json", body, &resp); err != nil {
		log.Println("[ECONT] quote failed, falling back to zero:", err)
		return 0
	}

	if resp.Label.TotalPrice == nil || resp.Label.TotalPrice.Amount == nil {
		log.Println("[ECONT] quote response has no total price, falling back to zero")
		return 0
	}

	return *resp.Label.TotalPrice.Amount
}

// LabelResult is the outcome of a successful label creation.
type LabelResult struct {
	ShipmentNumber string
	LabelURL       string

	// ShippingPrice is the courier's reported total, used to backfill the
	// order's shipping cost when it was never quoted. Zero when the response
	// carried no price.
	ShippingPrice float64
}

// CreateLabel registers a shipment for a confirmed order and returns the
// shipment number and label document URL. Cash-on-delivery orders flag the
// receiver as payer of both the freight and the collected amount.
func (c *Client) CreateLabel(ctx context.Context, order models.Order) (LabelResult, error) {
	collect := 0.0
	if order.PaymentMethod == models.PaymentMethodCash {
		collect = order.Total
	}

	label := c.buildLabel(order.WeightKg(), order.Customer.City, order.Customer.PostCode, order.Total, collect)
	label.Receiver.Name = order.Customer.FirstName + " " + order.Customer.LastName
	label.Receiver.Phone = order.Customer.Phone
	label.Receiver.Email = order.Customer.Email
	label.Receiver.Street = order.Customer.Address1
	label.Description = fmt.Sprintf("Поръчка %s", order.ID.Hex())

	var resp labelResponse
	if err := c.post(ctx, "/Shipments/LabelService.createLabel.json", labelRequest{Label: label, Mode: "create"}, &resp); err != nil {
		return LabelResult{}, err
	}

	if resp.Label.ShipmentNumber == "" {
		return LabelResult{}, ErrNoShipmentNumber
	}

	result := LabelResult{
		ShipmentNumber: resp.Label.ShipmentNumber,
		LabelURL:       resp.Label.PDFURL,
	}
	if resp.Label.TotalPrice != nil && resp.Label.TotalPrice.Amount != nil {
		result.ShippingPrice = *resp.Label.TotalPrice.Amount
	}
	return result, nil
}

func (c *Client) buildLabel(weightKg float64, city, postCode string, declaredValue, collectAmount float64) labelBody {
	payer := "SENDER"
	if collectAmount > 0 {
		payer = "RECEIVER"
	}

	body := labelBody{
		ShipmentType: c.shipmentType(weightKg),
		ServiceClass: "ECONOMY",
		PackCount:    1,
		WeightKg:     ShipmentWeight(weightKg),
		Payer:        payer,
		Sender: addressBlock{
			Name:     c.cfg.SenderName,
			Phone:    c.cfg.SenderPhone,
			Country:  "BGR",
			City:     c.cfg.SenderCity,
			PostCode: c.cfg.SenderPostCode,
		},
		Receiver: addressBlock{
			Country:  "BGR",
			City:     city,
			PostCode: postCode,
		},
		Services: labelServices{
			DeclaredValue: declaredValue,
		},
	}

	if collectAmount > 0 {
		body.Services.CDAmount = collectAmount
		body.Services.CDCurrency = "BGN"
	}

	return body
}

// shipmentType classifies by the configured weight bucket: parcels up to the
// threshold, cargo above it.
func (c *Client) shipmentType(weightKg float64) string {
	if ShipmentWeight(weightKg) <= c.parcelMaxKg {
		return shipmentTypePack
	}
	return shipmentTypeCargo
}

// ShipmentWeight applies the minimum weight floor.
func ShipmentWeight(kg float64) float64 {
	if kg < minWeightKg {
		return minWeightKg
	}
	return kg
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("econt: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("econt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("econt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("econt: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("econt: decode response: %w", err)
	}
	return nil
}

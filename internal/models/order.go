package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCash = "cash" // наложен платеж, collected by the courier
	PaymentMethodCard = "card" // online card payment through myPOS
)

// Payment status values. Once an order is paid it must never move to any
// other status, no matter which reconciliation channel fires.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// OrderItem is a snapshot of one cart line at the moment of checkout. Price
// and weight are frozen here; later catalog edits must not affect them.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	PackagingID primitive.ObjectID `bson:"packagingId" json:"packagingId"`
	Name        string             `bson:"name" json:"name"`
	WeightGrams float64            `bson:"weightGrams" json:"weightGrams"`
	Price       float64            `bson:"price" json:"price"`
	Quantity    int                `bson:"quantity" json:"quantity"`
}

// Subtotal returns quantity × snapshotted unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderCustomer carries the contact and delivery fields collected by the
// checkout form.
type OrderCustomer struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	Country   string `bson:"country" json:"country"`
	State     string `bson:"state,omitempty" json:"state,omitempty"`
	City      string `bson:"city" json:"city"`
	Address1  string `bson:"address1" json:"address1"`
	Address2  string `bson:"address2,omitempty" json:"address2,omitempty"`
	PostCode  string `bson:"postCode" json:"postCode"`
}

// CompanyInvoice holds optional invoice-to-company details.
type CompanyInvoice struct {
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	MOL     string `bson:"mol,omitempty" json:"mol,omitempty"`
	Bulstat string `bson:"bulstat,omitempty" json:"bulstat,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Order is the persisted checkout document. Total is always recomputed from
// the embedded items; TransactionID is the gateway order reference, written
// once and reused on retries.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Total         float64            `bson:"total" json:"total"`
	Customer      OrderCustomer      `bson:"customer" json:"customer"`
	IsCompany     bool               `bson:"isCompany" json:"isCompany"`
	Company       *CompanyInvoice    `bson:"company,omitempty" json:"company,omitempty"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus string             `bson:"paymentStatus" json:"paymentStatus"`
	TransactionID string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	ShippingCost  float64            `bson:"shippingCost" json:"shippingCost"`
	ShipmentNum   string             `bson:"econtShipmentNum,omitempty" json:"econtShipmentNum,omitempty"`
	LabelURL      string             `bson:"labelUrl,omitempty" json:"labelUrl,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemsTotal recomputes the order total from the snapshotted items.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// WeightKg aggregates the shipment weight over all items. Packaging weights
// are stored in grams.
func (o Order) WeightKg() float64 {
	grams := 0.0
	for _, item := range o.Items {
		grams += item.WeightGrams * float64(item.Quantity)
	}
	return grams / 1000
}

// IsPaid reports whether the order has reached the terminal paid status.
func (o Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

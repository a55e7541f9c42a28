package mypos

import (
	"crypto/rsa"
	"fmt"

	"github.com/shopspring/decimal"

	"sakarela/internal/config"
	"sakarela/internal/models"
)

const (
	methodPurchase = "IPCPurchase"
	ipcVersion     = "1.4"

	FieldOrderID   = "OrderID"
	FieldAmount    = "Amount"
	FieldSignature = "Signature"
)

// Builder assembles signed IPCPurchase requests. Loading the private key is
// done once at startup; a missing or malformed key is a configuration error
// that fails fast.
type Builder struct {
	cfg  config.MyPOSConfig
	base string
	key  *rsa.PrivateKey
}

func NewBuilder(cfg config.MyPOSConfig, publicBaseURL string) (*Builder, error) {
	key, err := LoadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, base: publicBaseURL, key: key}, nil
}

// Endpoint returns the gateway URL the auto-submitting form posts to.
func (b *Builder) Endpoint() string {
	return b.cfg.BaseURL
}

// BuildPurchase constructs the ordered, signed parameter set for one order.
// The order must already carry a valid gateway reference and committed item
// snapshots; the amount is recomputed here from those snapshots plus the
// currently known shipping cost, each rounded to two decimals before
// summing. The order itself is not mutated.
func (b *Builder) BuildPurchase(order models.Order) (*ParamSet, error) {
	if !ValidOrderReference(order.TransactionID) {
		return nil, fmt.Errorf("mypos: order %s has no valid gateway reference", order.ID.Hex())
	}

	subtotal := order.ItemsTotal().Round(2)
	shipping := decimal.NewFromFloat(order.ShippingCost).Round(2)
	amount := subtotal.Add(shipping)

	itemRows := len(order.Items)
	if shipping.IsPositive() {
		itemRows++
	}

	ps := &ParamSet{}
	ps.Add("IPCmethod", methodPurchase)
	ps.Add("IPCVersion", ipcVersion)
	ps.Add("IPCLanguage", "EN")
	ps.Add("SID", b.cfg.SID)
	ps.Add("WalletNumber", b.cfg.WalletNumber)
	ps.Add("KeyIndex", b.cfg.KeyIndex)
	ps.Add("Source", "website")
	ps.Add(FieldOrderID, order.TransactionID)
	ps.Add(FieldAmount, amount.StringFixed(2))
	ps.Add("Currency", b.cfg.Currency)
	ps.Add("URL_OK", b.callbackURL("/store/payment/result", order.TransactionID))
	ps.Add("URL_Cancel", b.callbackURL("/store/payment/cancel", order.TransactionID))
	ps.Add("URL_Notify", b.callbackURL("/store/payment/notify", order.TransactionID))
	ps.Add("CardTokenRequest", "0")
	ps.Add("PaymentParametersRequired", "1")
	ps.Add("customeremail", order.Customer.Email)
	ps.Add("customerfirstnames", order.Customer.FirstName)
	ps.Add("customerfamilyname", order.Customer.LastName)
	ps.Add("customerphone", order.Customer.Phone)
	ps.Add("customercountry", order.Customer.Country)
	ps.Add("customercity", order.Customer.City)
	ps.Add("customerzipcode", order.Customer.PostCode)
	ps.Add("customeraddress", order.Customer.Address1)
	ps.Add("Note", "")
	ps.Add("CartItems", fmt.Sprintf("%d", itemRows))

	row := 1
	for _, item := range order.Items {
		price := decimal.NewFromFloat(item.Price).Round(2)
		lineAmount := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		ps.Add(fmt.Sprintf("Article_%d", row), item.Name)
		ps.Add(fmt.Sprintf("Quantity_%d", row), fmt.Sprintf("%d", item.Quantity))
		ps.Add(fmt.Sprintf("Price_%d", row), price.StringFixed(2))
		ps.Add(fmt.Sprintf("Amount_%d", row), lineAmount.StringFixed(2))
		ps.Add(fmt.Sprintf("Currency_%d", row), b.cfg.Currency)
		row++
	}

	if shipping.IsPositive() {
		ps.Add(fmt.Sprintf("Article_%d", row), "Доставка")
		ps.Add(fmt.Sprintf("Quantity_%d", row), "1")
		ps.Add(fmt.Sprintf("Price_%d", row), shipping.StringFixed(2))
		ps.Add(fmt.Sprintf("Amount_%d", row), shipping.StringFixed(2))
		ps.Add(fmt.Sprintf("Currency_%d", row), b.cfg.Currency)
	}

	signature, err := Sign(b.key, ps)
	if err != nil {
		return nil, err
	}
	ps.Add(FieldSignature, signature)

	return ps, nil
}

func (b *Builder) callbackURL(path, reference string) string {
	return b.base + path + "?OrderID=" + reference
}

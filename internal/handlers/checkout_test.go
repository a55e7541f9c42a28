package handlers

import (
	"testing"

	"sakarela/internal/models"
)

func validRequest() checkoutRequest {
	return checkoutRequest{
		FirstName:     "Мария",
		LastName:      "Иванова",
		Email:         "maria@example.com",
		Phone:         "+359888123456",
		Country:       "България",
		City:          "София",
		Address1:      "бул. Витоша 1",
		PostCode:      "1000",
		PaymentMethod: models.PaymentMethodCard,
	}
}

func TestValidateCheckout(t *testing.T) {
	if err := validateCheckout(validRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := validRequest()
	bad.PaymentMethod = "bitcoin"
	if err := validateCheckout(bad); err == nil {
		t.Fatal("unknown payment method accepted")
	}

	bad = validRequest()
	bad.Phone = "12345"
	if err := validateCheckout(bad); err == nil {
		t.Fatal("malformed phone accepted")
	}

	// Phone is optional when empty.
	ok := validRequest()
	ok.Phone = ""
	if err := validateCheckout(ok); err != nil {
		t.Fatalf("empty phone rejected: %v", err)
	}

	ok = validRequest()
	ok.Phone = "0888123456"
	if err := validateCheckout(ok); err != nil {
		t.Fatalf("national phone format rejected: %v", err)
	}

	bad = validRequest()
	bad.IsCompany = true
	bad.CompanyName = "Фирма ЕООД"
	if err := validateCheckout(bad); err == nil {
		t.Fatal("company invoice without bulstat accepted")
	}
}

func TestOrderFromCheckout(t *testing.T) {
	req := validRequest()
	req.FirstName = "  Мария "
	req.IsCompany = true
	req.CompanyName = " Фирма ЕООД "
	req.CompanyBulstat = "123456789"

	order := orderFromCheckout(req)

	if order.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("new order must start pending, got %q", order.PaymentStatus)
	}
	if order.Customer.FirstName != "Мария" {
		t.Fatalf("name not trimmed: %q", order.Customer.FirstName)
	}
	if order.Company == nil || order.Company.Name != "Фирма ЕООД" {
		t.Fatalf("company invoice not carried over: %+v", order.Company)
	}

	plain := orderFromCheckout(validRequest())
	if plain.Company != nil {
		t.Fatal("non-company order carries invoice details")
	}
}

func TestCODAmount(t *testing.T) {
	if got := codAmount(models.PaymentMethodCash, 42.5); got != 42.5 {
		t.Fatalf("cash order should collect the subtotal, got %v", got)
	}
	if got := codAmount(models.PaymentMethodCard, 42.5); got != 0 {
		t.Fatalf("card order must not collect on delivery, got %v", got)
	}
}

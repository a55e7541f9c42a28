package models

import "testing"

func TestPackagingOptionCurrentPrice(t *testing.T) {
	opt := PackagingOption{Price: 100, SaleEnabled: true, SalePrice: 80}
	if got := opt.CurrentPrice(); got != 80 {
		t.Fatalf("active sale: got %v, want 80", got)
	}

	opt.SalePrice = 100
	if got := opt.CurrentPrice(); got != 100 {
		t.Fatalf("sale price equal to price must not apply: got %v", got)
	}

	opt.SaleEnabled = false
	opt.SalePrice = 80
	if got := opt.CurrentPrice(); got != 100 {
		t.Fatalf("disabled sale must not apply: got %v", got)
	}

	opt = PackagingOption{Price: 100, SaleEnabled: true, SalePrice: 0}
	if got := opt.CurrentPrice(); got != 100 {
		t.Fatalf("zero sale price must not apply: got %v", got)
	}
}

package handlers

import "fmt"

// Sale-price rules for packaging options: a promo price must exist, be
// positive, and undercut the regular price. Whether a sale applies at read
// time is decided by models.PackagingOption.CurrentPrice.

func validateSaleFields(price float64, saleEnabled bool, salePrice float64) error {
	if !saleEnabled {
		return nil
	}
	if salePrice <= 0 {
		return fmt.Errorf("salePrice must be greater than 0")
	}
	if salePrice >= price {
		return fmt.Errorf("salePrice must be less than price")
	}
	return nil
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PackagingOption is one purchasable variant of a product (weight + price).
// The cart references options by ID, so prices can change without touching
// existing orders.
type PackagingOption struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WeightGrams float64            `bson:"weightGrams" json:"weightGrams"`
	Price       float64            `bson:"price" json:"price"`
	SaleEnabled bool               `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice   float64            `bson:"salePrice" json:"salePrice"`
}

// CurrentPrice returns the sale price when the promo is active, otherwise
// the regular price.
func (p PackagingOption) CurrentPrice() float64 {
	if p.SaleEnabled && p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

// Nutrition facts per 100 g, shown on the product page.
type Nutrition struct {
	Energy       string  `bson:"energy" json:"energy"`
	Fat          float64 `bson:"fat" json:"fat"`
	SaturatedFat float64 `bson:"saturatedFat" json:"saturatedFat"`
	Carbs        float64 `bson:"carbs" json:"carbs"`
	Sugars       float64 `bson:"sugars" json:"sugars"`
	Protein      float64 `bson:"protein" json:"protein"`
	Salt         float64 `bson:"salt" json:"salt"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Ingredients string             `bson:"ingredients,omitempty" json:"ingredients,omitempty"`
	Storage     string             `bson:"storage,omitempty" json:"storage,omitempty"`
	Badge       string             `bson:"badge,omitempty" json:"badge,omitempty"`
	Category    StringList         `bson:"category" json:"category"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	ImagePath   string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	Packaging   []PackagingOption  `bson:"packaging" json:"packaging"`
	Nutrition   *Nutrition         `bson:"nutrition,omitempty" json:"nutrition,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// PackagingByID finds an embedded packaging option.
func (p Product) PackagingByID(id primitive.ObjectID) (PackagingOption, bool) {
	for _, opt := range p.Packaging {
		if opt.ID == id {
			return opt, true
		}
	}
	return PackagingOption{}, false
}

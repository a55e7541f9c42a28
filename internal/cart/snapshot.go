package cart

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sakarela/internal/models"
)

// Line is one resolved cart entry: the product, the chosen packaging option
// and the price in effect right now (including any active sale price).
type Line struct {
	Product   models.Product         `json:"product"`
	Packaging models.PackagingOption `json:"packaging"`
	Quantity  int                    `json:"quantity"`
	UnitPrice float64                `json:"unitPrice"`
	Subtotal  float64                `json:"subtotal"`
}

// Snapshot is a point-in-time resolution of the session cart against the
// catalog. It is a pure read: nothing is reserved or persisted.
type Snapshot struct {
	Lines    []Line  `json:"lines"`
	Subtotal float64 `json:"subtotal"`
	WeightKg float64 `json:"weightKg"`
}

func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// Resolve turns the session cart mapping into concrete lines. Entries whose
// product or packaging no longer exists (deleted, deactivated, stale key)
// are dropped with a log line rather than failing the whole cart.
func Resolve(ctx context.Context, db *mongo.Database, cartMap map[string]int) (Snapshot, error) {
	snapshot := Snapshot{}
	subtotal := decimal.Zero
	weightGrams := 0.0

	for key, qty := range cartMap {
		if qty <= 0 {
			continue
		}

		productID, packagingID, err := ParseKey(key)
		if err != nil {
			log.Println("[CART] dropping entry:", err)
			continue
		}

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isActive":  bson.M{"$ne": false},
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			log.Printf("[CART] dropping entry %s: product gone", key)
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}

		packaging, ok := product.PackagingByID(packagingID)
		if !ok {
			log.Printf("[CART] dropping entry %s: packaging gone", key)
			continue
		}

		unitPrice := packaging.CurrentPrice()
		lineSubtotal := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(qty)))

		snapshot.Lines = append(snapshot.Lines, Line{
			Product:   product,
			Packaging: packaging,
			Quantity:  qty,
			UnitPrice: unitPrice,
			Subtotal:  lineSubtotal.InexactFloat64(),
		})
		subtotal = subtotal.Add(lineSubtotal)
		weightGrams += packaging.WeightGrams * float64(qty)
	}

	snapshot.Subtotal = subtotal.InexactFloat64()
	snapshot.WeightKg = weightGrams / 1000
	return snapshot, nil
}

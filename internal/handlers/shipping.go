package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sakarela/internal/cart"
	"sakarela/internal/econt"
	"sakarela/internal/models"
)

// labelCreator is what ensureShipmentLabel needs from the courier client.
type labelCreator interface {
	CreateLabel(ctx context.Context, order models.Order) (econt.LabelResult, error)
}

// ensureShipmentLabel creates the courier label for an order exactly once.
// An order that already carries a shipment number is returned as-is without
// any remote call, which makes checkout retries and racing reconciliation
// channels safe. On success only the shipment fields (and a missing shipping
// cost) are written, nothing else on the order is touched.
func ensureShipmentLabel(ctx context.Context, db *mongo.Database, courier labelCreator, order models.Order) (models.Order, error) {
	if order.ShipmentNum != "" {
		return order, nil
	}

	result, err := courier.CreateLabel(ctx, order)
	if err != nil {
		return order, err
	}

	set := bson.M{
		"econtShipmentNum": result.ShipmentNumber,
		"labelUrl":         result.LabelURL,
		"updatedAt":        time.Now(),
	}
	if order.ShippingCost == 0 && result.ShippingPrice > 0 {
		set["shippingCost"] = result.ShippingPrice
	}

	// Guarded write: if a concurrent call labelled the order first, keep
	// the first label and discard this one.
	res, err := db.Collection("orders").UpdateOne(
		ctx,
		bson.M{"_id": order.ID, "econtShipmentNum": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": set},
	)
	if err != nil {
		return order, err
	}

	if res.MatchedCount == 0 {
		var current models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": order.ID}).Decode(&current); err != nil {
			return order, err
		}
		return current, nil
	}

	order.ShipmentNum = result.ShipmentNumber
	order.LabelURL = result.LabelURL
	if order.ShippingCost == 0 && result.ShippingPrice > 0 {
		order.ShippingCost = result.ShippingPrice
	}
	return order, nil
}

/* =========================
   QUOTE PREVIEW
========================= */

type quoteRequest struct {
	City           string `json:"city" binding:"required"`
	PostCode       string `json:"postCode" binding:"required"`
	CashOnDelivery bool   `json:"cashOnDelivery"`
}

// ShippingQuote prices delivery for the current session cart before the
// order exists. A courier failure quotes zero, never an error page.
func ShippingQuote(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/shipping/quote"
		defer handlePanic(c, route)

		var req quoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		snapshot, err := cart.Resolve(ctx, db, cart.Get(sessions.Default(c)))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if snapshot.Empty() {
			respondWithError(c, http.StatusBadRequest, route, "cart is empty")
			return
		}

		collect := 0.0
		if req.CashOnDelivery {
			collect = snapshot.Subtotal
		}

		price := courier.Quote(ctx, econt.QuoteRequest{
			WeightKg:      snapshot.WeightKg,
			City:          req.City,
			PostCode:      req.PostCode,
			DeclaredValue: snapshot.Subtotal,
			CollectAmount: collect,
		})

		c.JSON(http.StatusOK, gin.H{
			"shippingCost": price,
			"weightKg":     econt.ShipmentWeight(snapshot.WeightKg),
		})
	}
}

/* =========================
   CITY SUGGESTIONS
========================= */

func EcontCities(cache *econt.CityCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/econt-cities"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		cities, err := cache.Suggest(ctx, "BGR", c.Query("q"))
		if err != nil {
			respondWithError(c, http.StatusBadGateway, route, "city lookup unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{"cities": cities})
	}
}

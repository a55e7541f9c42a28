package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sakarela/internal/econt"
	"sakarela/internal/models"
)

/*
GET /admin/orders
- pagination mandatory, response: data + pagination
- optional paymentStatus / paymentMethod / email filters
*/
func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("paymentStatus")); status != "" {
			filter["paymentStatus"] = status
		}
		if method := strings.TrimSpace(c.Query("paymentMethod")); method != "" {
			filter["paymentMethod"] = method
		}
		if email := strings.TrimSpace(c.Query("email")); email != "" {
			filter["customer.email"] = bson.M{"$regex": email, "$options": "i"}
		}

		findOptions := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": orders,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		})
	}
}

// GET /admin/orders/:id
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// DELETE /admin/orders/:id
func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

/*
POST /admin/orders/:id/label
- retries courier label creation after a failed automatic attempt;
  a no-op when the order already has a shipment number
*/
func RetryOrderLabel(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/orders/:id/label"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		labeled, err := ensureShipmentLabel(ctx, db, courier, order)
		if err != nil {
			log.Printf("[%s] label retry failed for order %s: %v", route, orderID.Hex(), err)
			respondWithError(c, http.StatusBadGateway, route, "courier rejected the shipment")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"shipmentNumber": labeled.ShipmentNum,
			"labelUrl":       labeled.LabelURL,
			"shippingCost":   labeled.ShippingCost,
		})
	}
}

/*
POST /admin/orders/:id/mark-paid
- manual reconciliation for bank-confirmed payments that never reached the
  notification endpoint; uses the same guarded transition as the gateway
  channels, so an already paid order is left alone
*/
func MarkOrderPaid(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/orders/:id/mark-paid"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		res, err := db.Collection("orders").UpdateOne(
			ctx,
			bson.M{"_id": orderID, "paymentStatus": bson.M{"$ne": models.PaymentStatusPaid}},
			bson.M{"$set": bson.M{"paymentStatus": models.PaymentStatusPaid, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if res.ModifiedCount > 0 && order.ShipmentNum == "" {
			labeled, err := ensureShipmentLabel(ctx, db, courier, order)
			if err != nil {
				log.Printf("[%s] label creation failed for order %s: %v", route, orderID.Hex(), err)
			} else {
				order = labeled
			}
		}

		c.JSON(http.StatusOK, order)
	}
}

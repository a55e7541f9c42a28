package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sakarela/internal/cart"
	"sakarela/internal/models"
)

const maxLineQuantity = 99

type cartItemRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	PackagingID string `json:"packagingId" binding:"required"`
	Quantity    int    `json:"quantity"`
}

func (r cartItemRequest) ids() (primitive.ObjectID, primitive.ObjectID, error) {
	productID, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	packagingID, err := primitive.ObjectIDFromHex(r.PackagingID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return productID, packagingID, nil
}

func respondWithCart(c *gin.Context, db *mongo.Database, route string, cartMap map[string]int) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
	defer cancel()

	snapshot, err := cart.Resolve(ctx, db, cartMap)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GET /store/cart
func CartView(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/cart"
		defer handlePanic(c, route)

		respondWithCart(c, db, route, cart.Get(sessions.Default(c)))
	}
}

/*
POST /store/cart/add
- quantity defaults to 1 and is added to any existing line
- the (product, packaging) pair is verified against the catalog before it
  enters the session, so the cart never holds keys that cannot resolve
*/
func CartAdd(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/cart/add"
		defer handlePanic(c, route)

		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		productID, packagingID, err := req.ids()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product or packaging id")
			return
		}

		quantity := req.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isActive":  bson.M{"$ne": false},
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&product)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if _, ok := product.PackagingByID(packagingID); !ok {
			respondWithError(c, http.StatusNotFound, route, "packaging option not found")
			return
		}

		session := sessions.Default(c)
		cartMap := cart.Get(session)

		key := cart.Key(productID, packagingID)
		cartMap[key] += quantity
		if cartMap[key] > maxLineQuantity {
			cartMap[key] = maxLineQuantity
		}

		if err := cart.Save(session, cartMap); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "session error")
			return
		}

		log.Printf("[%s] %s x%d", route, key, cartMap[key])
		respondWithCart(c, db, route, cartMap)
	}
}

/*
POST /store/cart/update
- sets the line quantity directly; zero or negative removes the line
*/
func CartUpdate(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/cart/update"
		defer handlePanic(c, route)

		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		productID, packagingID, err := req.ids()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product or packaging id")
			return
		}

		session := sessions.Default(c)
		cartMap := cart.Get(session)

		key := cart.Key(productID, packagingID)
		if req.Quantity <= 0 {
			delete(cartMap, key)
		} else {
			quantity := req.Quantity
			if quantity > maxLineQuantity {
				quantity = maxLineQuantity
			}
			cartMap[key] = quantity
		}

		if err := cart.Save(session, cartMap); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "session error")
			return
		}

		respondWithCart(c, db, route, cartMap)
	}
}

// POST /store/cart/remove
func CartRemove(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/cart/remove"
		defer handlePanic(c, route)

		var req struct {
			ProductID   string `json:"productId" binding:"required"`
			PackagingID string `json:"packagingId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}
		packagingID, err := primitive.ObjectIDFromHex(req.PackagingID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid packaging id")
			return
		}

		session := sessions.Default(c)
		cartMap := cart.Get(session)
		delete(cartMap, cart.Key(productID, packagingID))

		if err := cart.Save(session, cartMap); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "session error")
			return
		}

		respondWithCart(c, db, route, cartMap)
	}
}

// POST /store/cart/clear
func CartClear(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/cart/clear"
		defer handlePanic(c, route)

		if err := cart.Clear(sessions.Default(c)); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "session error")
			return
		}

		respondWithCart(c, db, route, map[string]int{})
	}
}

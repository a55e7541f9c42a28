package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sakarela/internal/models"
)

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, cursor.Err()
}

/*
GET /store/products
- pagination is optional: without page + limit, ALL matching products
- search / category / brand filter in the query
- minPrice / maxPrice filter on the effective packaging price (sale-aware),
  applied in memory because the sale price lives inside the embedded options
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/products"
		defer handlePanic(c, route)

		log.Printf(
			"[%s] hit page=%s limit=%s category=%s brand=%s search=%s",
			route,
			c.Query("page"),
			c.Query("limit"),
			c.Query("category"),
			c.Query("brand"),
			c.Query("search"),
		)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		// BASE FILTER
		filter := bson.M{
			"isActive":  bson.M{"$ne": false},
			"isDeleted": bson.M{"$ne": true},
		}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = bson.M{"$in": []string{category}}
		}

		if brand := strings.TrimSpace(c.Query("brand")); brand != "" {
			filter["brand"] = brand
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": search, "$options": "i"}
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		priceFiltered := c.Query("minPrice") != "" || c.Query("maxPrice") != ""

		// Pagination is applied in the query only when no in-memory price
		// filter runs afterwards, otherwise pages would come back short.
		if pageStr != "" && limitStr != "" && !priceFiltered {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}

			findOptions.
				SetSkip((page - 1) * limit).
				SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		if priceFiltered {
			minPrice, maxPrice, err := parsePriceRange(c.Query("minPrice"), c.Query("maxPrice"))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid price range")
				return
			}
			products = filterByEffectivePrice(products, minPrice, maxPrice)
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, products)
	}
}

func parsePriceRange(minStr, maxStr string) (float64, float64, error) {
	minPrice := 0.0
	maxPrice := 0.0
	var err error

	if minStr != "" {
		if minPrice, err = strconv.ParseFloat(minStr, 64); err != nil || minPrice < 0 {
			return 0, 0, errBadPagination
		}
	}
	if maxStr != "" {
		if maxPrice, err = strconv.ParseFloat(maxStr, 64); err != nil || maxPrice < 0 {
			return 0, 0, errBadPagination
		}
	}
	return minPrice, maxPrice, nil
}

// filterByEffectivePrice keeps products with at least one packaging option
// whose sale-aware price falls inside [minPrice, maxPrice]. maxPrice == 0
// means no upper bound.
func filterByEffectivePrice(products []models.Product, minPrice, maxPrice float64) []models.Product {
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		for _, opt := range p.Packaging {
			price := opt.CurrentPrice()
			if price < minPrice {
				continue
			}
			if maxPrice > 0 && price > maxPrice {
				continue
			}
			filtered = append(filtered, p)
			break
		}
	}
	return filtered
}

/*
GET /store/products/:id
- product detail + up to 4 related products sharing a category
*/
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       id,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&product)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		related := make([]models.Product, 0, 4)
		if len(product.Category) > 0 {
			findOptions := options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetLimit(4)

			cursor, err := db.Collection("products").Find(ctx, bson.M{
				"_id":       bson.M{"$ne": product.ID},
				"category":  bson.M{"$in": []string(product.Category)},
				"isActive":  bson.M{"$ne": false},
				"isDeleted": bson.M{"$ne": true},
			}, findOptions)
			if err == nil {
				defer cursor.Close(ctx)
				if decoded, err := decodeProducts(ctx, cursor); err == nil {
					related = decoded
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"product": product,
			"related": related,
		})
	}
}

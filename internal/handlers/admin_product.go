package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sakarela/internal/models"
)

/*
=======================
  INPUT STRUCTS
=======================
*/

type PackagingInput struct {
	ID          string  `json:"id"`
	WeightGrams float64 `json:"weightGrams"`
	Price       float64 `json:"price"`
	SaleEnabled bool    `json:"saleEnabled"`
	SalePrice   float64 `json:"salePrice"`
}

type ProductCreateRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Ingredients string            `json:"ingredients"`
	Storage     string            `json:"storage"`
	Badge       string            `json:"badge"`
	Category    []string          `json:"category"`
	Brand       string            `json:"brand"`
	Packaging   []PackagingInput  `json:"packaging" binding:"required"`
	Nutrition   *models.Nutrition `json:"nutrition"`
	IsActive    *bool             `json:"isActive"`
}

type ProductUpdateRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Ingredients *string           `json:"ingredients"`
	Storage     *string           `json:"storage"`
	Badge       *string           `json:"badge"`
	Category    []string          `json:"category"`
	Brand       *string           `json:"brand"`
	Packaging   []PackagingInput  `json:"packaging"`
	Nutrition   *models.Nutrition `json:"nutrition"`
	IsActive    *bool             `json:"isActive"`
}

// buildPackaging validates and converts packaging inputs. Options without an
// id get a fresh one; options carrying an id keep it so existing cart keys
// and order snapshots stay resolvable.
func buildPackaging(inputs []PackagingInput) ([]models.PackagingOption, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one packaging option is required")
	}

	packaging := make([]models.PackagingOption, 0, len(inputs))
	for i, in := range inputs {
		if in.WeightGrams <= 0 {
			return nil, fmt.Errorf("packaging[%d]: weightGrams must be greater than 0", i)
		}
		if in.Price <= 0 {
			return nil, fmt.Errorf("packaging[%d]: price must be greater than 0", i)
		}
		if err := validateSaleFields(in.Price, in.SaleEnabled, in.SalePrice); err != nil {
			return nil, fmt.Errorf("packaging[%d]: %v", i, err)
		}

		id := primitive.NewObjectID()
		if strings.TrimSpace(in.ID) != "" {
			parsed, err := primitive.ObjectIDFromHex(in.ID)
			if err != nil {
				return nil, fmt.Errorf("packaging[%d]: invalid id", i)
			}
			id = parsed
		}

		packaging = append(packaging, models.PackagingOption{
			ID:          id,
			WeightGrams: in.WeightGrams,
			Price:       in.Price,
			SaleEnabled: in.SaleEnabled,
			SalePrice:   in.SalePrice,
		})
	}
	return packaging, nil
}

/*
GET /admin/products
- includes inactive products, excludes soft-deleted ones
- pagination is mandatory, response: data + pagination
*/
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{"isDeleted": bson.M{"$ne": true}}

		if v := strings.TrimSpace(c.Query("isActive")); v != "" {
			filter["isActive"] = v == "true"
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": search, "$options": "i"}
		}

		findOptions := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

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

		c.JSON(http.StatusOK, gin.H{
			"data": products,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		})
	}
}

/*
POST /admin/products
*/
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		packaging, err := buildPackaging(req.Packaging)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		product := models.Product{
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			Ingredients: strings.TrimSpace(req.Ingredients),
			Storage:     strings.TrimSpace(req.Storage),
			Badge:       strings.TrimSpace(req.Badge),
			Category:    models.StringList(req.Category),
			Brand:       strings.TrimSpace(req.Brand),
			Packaging:   packaging,
			Nutrition:   req.Nutrition,
			IsActive:    isActive,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		result, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID = result.InsertedID.(primitive.ObjectID)

		log.Printf("[%s] created product %s", route, product.ID.Hex())
		c.JSON(http.StatusCreated, product)
	}
}

/*
PUT /admin/products/:id
- partial update; packaging, when present, replaces the whole list
*/
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		update := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Ingredients != nil {
			update["ingredients"] = strings.TrimSpace(*req.Ingredients)
		}
		if req.Storage != nil {
			update["storage"] = strings.TrimSpace(*req.Storage)
		}
		if req.Badge != nil {
			update["badge"] = strings.TrimSpace(*req.Badge)
		}
		if req.Brand != nil {
			update["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.Category != nil {
			update["category"] = models.StringList(req.Category)
		}
		if req.Nutrition != nil {
			update["nutrition"] = req.Nutrition
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}
		if req.Packaging != nil {
			packaging, err := buildPackaging(req.Packaging)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			update["packaging"] = packaging
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)

		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

/*
DELETE /admin/products/:id
- soft delete; existing order snapshots keep their copies
*/
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		now := time.Now()
		result, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{
				"isDeleted": true,
				"isActive":  false,
				"deletedAt": now,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

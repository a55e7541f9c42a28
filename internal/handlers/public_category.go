package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sakarela/internal/models"
)

// GET /store/categories
func GetCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/categories"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

		cursor, err := db.Collection("categories").Find(ctx, bson.M{"isActive": bson.M{"$ne": false}}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		categories := make([]models.Category, 0)
		if err := cursor.All(ctx, &categories); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, categories)
	}
}

// GET /store/brands
func GetBrands(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/brands"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

		cursor, err := db.Collection("brands").Find(ctx, bson.M{"isActive": bson.M{"$ne": false}}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		brands := make([]models.Brand, 0)
		if err := cursor.All(ctx, &brands); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, brands)
	}
}

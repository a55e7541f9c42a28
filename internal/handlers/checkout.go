package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sakarela/internal/cart"
	"sakarela/internal/econt"
	"sakarela/internal/models"
)

/* =========================
   CHECKOUT REQUEST
========================= */

type checkoutRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone"`
	Country       string `json:"country" binding:"required"`
	State         string `json:"state"`
	City          string `json:"city" binding:"required"`
	Address1      string `json:"address1" binding:"required"`
	Address2      string `json:"address2"`
	PostCode      string `json:"postCode" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`

	IsCompany      bool   `json:"isCompany"`
	CompanyName    string `json:"companyName"`
	CompanyMOL     string `json:"companyMol"`
	CompanyBulstat string `json:"companyBulstat"`
	CompanyAddress string `json:"companyAddress"`
}

// Bulgarian numbers only: +359XXXXXXXXX or 0XXXXXXXXX.
var phonePattern = regexp.MustCompile(`^(?:\+359\d{9}|0\d{9})$`)

func validateCheckout(req checkoutRequest) error {
	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentMethod != models.PaymentMethodCard {
		return errors.New("invalid payment method")
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" && !phonePattern.MatchString(phone) {
		return errors.New("invalid phone number")
	}
	if req.IsCompany {
		if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.CompanyBulstat) == "" {
			return errors.New("company name and bulstat are required for company invoices")
		}
	}
	return nil
}

func orderFromCheckout(req checkoutRequest) models.Order {
	order := models.Order{
		Customer: models.OrderCustomer{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     strings.TrimSpace(req.Email),
			Phone:     strings.TrimSpace(req.Phone),
			Country:   strings.TrimSpace(req.Country),
			State:     strings.TrimSpace(req.State),
			City:      strings.TrimSpace(req.City),
			Address1:  strings.TrimSpace(req.Address1),
			Address2:  strings.TrimSpace(req.Address2),
			PostCode:  strings.TrimSpace(req.PostCode),
		},
		IsCompany:     req.IsCompany,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if req.IsCompany {
		order.Company = &models.CompanyInvoice{
			Name:    strings.TrimSpace(req.CompanyName),
			MOL:     strings.TrimSpace(req.CompanyMOL),
			Bulstat: strings.TrimSpace(req.CompanyBulstat),
			Address: strings.TrimSpace(req.CompanyAddress),
		}
	}
	return order
}

/* =========================
   PLACE ORDER
========================= */

// PlaceOrder turns the session cart into a persisted order. The order and
// its item snapshots are written in one transaction and the total is
// recomputed from the persisted items; whatever total the client thinks it
// has is never consulted. Cash orders get their courier label immediately;
// card orders are handed to the payment initiation endpoint.
func PlaceOrder(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/checkout"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if err := validateCheckout(req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		session := sessions.Default(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		snapshot, err := cart.Resolve(ctx, db, cart.Get(session))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if snapshot.Empty() {
			respondWithError(c, http.StatusBadRequest, route, "cart is empty")
			return
		}

		order := orderFromCheckout(req)

		// Best-effort quote shown at checkout; zero when the courier is
		// unreachable, the real charge reconciles later.
		order.ShippingCost = courier.Quote(ctx, econt.QuoteRequest{
			WeightKg:      snapshot.WeightKg,
			City:          order.Customer.City,
			PostCode:      order.Customer.PostCode,
			DeclaredValue: snapshot.Subtotal,
			CollectAmount: codAmount(req.PaymentMethod, snapshot.Subtotal),
		})

		sess, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer sess.EndSession(ctx)

		var persisted models.Order
		_, err = sess.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			order.Items = make([]models.OrderItem, 0, len(snapshot.Lines))
			for _, line := range snapshot.Lines {
				order.Items = append(order.Items, models.OrderItem{
					ProductID:   line.Product.ID,
					PackagingID: line.Packaging.ID,
					Name:        line.Product.Name,
					WeightGrams: line.Packaging.WeightGrams,
					Price:       line.UnitPrice,
					Quantity:    line.Quantity,
				})
			}

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			orderID, _ := res.InsertedID.(primitive.ObjectID)

			// Read back the committed items and aggregate: the stored total
			// always reflects the persisted snapshots, not an accumulator.
			if err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&persisted); err != nil {
				return nil, err
			}
			total := persisted.ItemsTotal().Round(2).InexactFloat64()

			if _, err := db.Collection("orders").UpdateOne(
				sessCtx,
				bson.M{"_id": orderID},
				bson.M{"$set": bson.M{"total": total, "updatedAt": time.Now()}},
			); err != nil {
				return nil, err
			}
			persisted.Total = total
			return nil, nil
		})
		if err != nil {
			log.Printf("[%s] order transaction failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "order could not be created")
			return
		}

		log.Printf("[%s] order %s created, method=%s total=%.2f", route, persisted.ID.Hex(), persisted.PaymentMethod, persisted.Total)

		if persisted.PaymentMethod == models.PaymentMethodCard {
			// The cart survives until the gateway confirms payment.
			c.JSON(http.StatusCreated, gin.H{
				"orderId":      persisted.ID.Hex(),
				"total":        persisted.Total,
				"shippingCost": persisted.ShippingCost,
				"paymentUrl":   "/store/payment/initiate/" + persisted.ID.Hex(),
			})
			return
		}

		if err := cart.Clear(session); err != nil {
			log.Printf("[%s] failed to clear cart: %v", route, err)
		}

		response := gin.H{
			"orderId":      persisted.ID.Hex(),
			"total":        persisted.Total,
			"shippingCost": persisted.ShippingCost,
		}

		labeled, err := ensureShipmentLabel(ctx, db, courier, persisted)
		if err != nil {
			// The order stands; the label can be retried from the admin.
			log.Printf("[%s] label creation failed for order %s: %v", route, persisted.ID.Hex(), err)
			response["warning"] = "shipment label could not be created"
		} else {
			response["shipmentNumber"] = labeled.ShipmentNum
			response["shippingCost"] = labeled.ShippingCost
		}

		c.JSON(http.StatusCreated, response)
	}
}

func codAmount(paymentMethod string, subtotal float64) float64 {
	if paymentMethod == models.PaymentMethodCash {
		return subtotal
	}
	return 0
}

package handlers

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"net/http"
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
	"sakarela/internal/mypos"
)

/* =========================
   TEMPLATES
========================= */

var redirectTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html lang="bg">
<head><meta charset="utf-8"><title>Пренасочване към плащане…</title></head>
<body onload="document.forms[0].submit()">
<p>Пренасочваме ви към страницата за плащане…</p>
<form action="{{.Action}}" method="post">
{{- range .Fields}}
<input type="hidden" name="{{.Key}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Продължи към плащане</button></noscript>
</form>
</body>
</html>
`))

var resultTemplate = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html lang="bg">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{- if .Reference}}
<p>Номер на поръчка: {{.Reference}}</p>
{{- end}}
</body>
</html>
`))

type resultPage struct {
	Title     string
	Message   string
	Reference string
}

func renderResultPage(c *gin.Context, page resultPage) {
	var buf bytes.Buffer
	if err := resultTemplate.Execute(&buf, page); err != nil {
		log.Println("[PAYMENT] result template error:", err)
		c.String(http.StatusOK, "%s", page.Title)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func successPage(ref string) resultPage {
	return resultPage{
		Title:     "Плащането е успешно",
		Message:   "Благодарим ви! Поръчката е платена и ще бъде изпратена.",
		Reference: ref,
	}
}

func cancelledPage(ref string) resultPage {
	return resultPage{
		Title:     "Плащането е отказано",
		Message:   "Поръчката не е платена. Можете да опитате отново.",
		Reference: ref,
	}
}

func failedPage(ref string) resultPage {
	return resultPage{
		Title:     "Плащането е неуспешно",
		Message:   "Картовото плащане не беше прието. Поръчката не е платена.",
		Reference: ref,
	}
}

func pendingPage(ref string) resultPage {
	return resultPage{
		Title:     "Изчакваме потвърждение",
		Message:   "Очакваме потвърждение от банката. Ще получите имейл, когато плащането бъде потвърдено.",
		Reference: ref,
	}
}

/* =========================
   STATE MACHINE
========================= */

// nextPaymentStatus is the single transition rule applied by every
// reconciliation channel. Paid is terminal; failure never overwrites an
// earlier failure; the unknown outcome never moves an order. The returned
// bool reports whether a transition should happen.
func nextPaymentStatus(current string, outcome mypos.Outcome) (string, bool) {
	switch outcome {
	case mypos.OutcomeSuccess:
		if current != models.PaymentStatusPaid {
			return models.PaymentStatusPaid, true
		}
	case mypos.OutcomeCancel:
		if current != models.PaymentStatusPaid && current != models.PaymentStatusCancelled {
			return models.PaymentStatusCancelled, true
		}
	case mypos.OutcomeFailure:
		if current != models.PaymentStatusPaid && current != models.PaymentStatusFailed {
			return models.PaymentStatusFailed, true
		}
	}
	return current, false
}

// statusGuard expresses the same rule as a mongo filter, so the transition
// is a compare-and-set on the order row instead of a read-then-write race.
func statusGuard(outcome mypos.Outcome) (target string, filter bson.M, ok bool) {
	switch outcome {
	case mypos.OutcomeSuccess:
		return models.PaymentStatusPaid,
			bson.M{"$ne": models.PaymentStatusPaid}, true
	case mypos.OutcomeCancel:
		return models.PaymentStatusCancelled,
			bson.M{"$nin": bson.A{models.PaymentStatusPaid, models.PaymentStatusCancelled}}, true
	case mypos.OutcomeFailure:
		return models.PaymentStatusFailed,
			bson.M{"$nin": bson.A{models.PaymentStatusPaid, models.PaymentStatusFailed}}, true
	}
	return "", nil, false
}

// needsShipmentLabel reports whether a reconciliation event should create
// the courier label. Only the channel whose guarded update performed the
// paid transition labels the order, so a notification and a browser redirect
// racing over the same payment cannot both reach the courier. A paid order
// left unlabelled by a failed attempt is retried from the admin.
func needsShipmentLabel(order models.Order, transitioned bool) bool {
	return transitioned &&
		order.IsPaid() &&
		order.PaymentMethod == models.PaymentMethodCard &&
		order.ShipmentNum == ""
}

// applyOutcome runs one reconciliation event against the order identified by
// its gateway reference. The update is guarded, so applying the same event
// twice (or racing the other channel) is a no-op the second time. The
// winning success event also creates the courier label; a label failure is
// logged, never propagated into payment state.
func applyOutcome(ctx context.Context, db *mongo.Database, courier labelCreator, reference string, outcome mypos.Outcome) (models.Order, bool, error) {
	orders := db.Collection("orders")

	transitioned := false
	if target, guard, ok := statusGuard(outcome); ok {
		res, err := orders.UpdateOne(
			ctx,
			bson.M{"transactionId": reference, "paymentStatus": guard},
			bson.M{"$set": bson.M{"paymentStatus": target, "updatedAt": time.Now()}},
		)
		if err != nil {
			return models.Order{}, false, err
		}
		transitioned = res.ModifiedCount > 0
	}

	var order models.Order
	if err := orders.FindOne(ctx, bson.M{"transactionId": reference}).Decode(&order); err != nil {
		return models.Order{}, false, err
	}

	if needsShipmentLabel(order, transitioned) {
		labeled, err := ensureShipmentLabel(ctx, db, courier, order)
		if err != nil {
			// Payment already succeeded; labelling is retried from the admin.
			log.Printf("[PAYMENT] label creation failed for paid order %s: %v", order.ID.Hex(), err)
		} else {
			order = labeled
		}
	}

	return order, transitioned, nil
}

/* =========================
   GATEWAY FIELD ACCESS
========================= */

// gatewayFields flattens query and form parameters into one map. The
// gateway normally posts, but both the notification and the browser
// redirects have been seen arriving as GET, so both carriers are accepted
// on every callback route.
func gatewayFields(c *gin.Context) map[string]string {
	_ = c.Request.ParseForm()
	fields := make(map[string]string, len(c.Request.Form))
	for key, values := range c.Request.Form {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields
}

func gatewayReference(fields map[string]string) string {
	for key, value := range fields {
		if strings.EqualFold(key, "OrderID") {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

/* =========================
   INITIATE
========================= */

// PaymentInitiate renders the auto-submitting form that sends the customer
// to the gateway. The order must exist and be a card order; the gateway
// reference is generated once and reused on retries, and a missing shipping
// cost is quoted opportunistically before the amount is signed.
func PaymentInitiate(db *mongo.Database, builder *mypos.Builder, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/payment/initiate"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		orders := db.Collection("orders")

		var order models.Order
		if err := orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if order.PaymentMethod != models.PaymentMethodCard {
			respondWithError(c, http.StatusBadRequest, route, "order is not payable by card")
			return
		}
		if order.IsPaid() {
			c.Redirect(http.StatusFound, "/store/payment/result?OrderID="+order.TransactionID)
			return
		}

		// Generated once; regenerated only when a stored legacy value breaks
		// the gateway's syntax rules.
		if !mypos.ValidOrderReference(order.TransactionID) {
			reference := mypos.NewOrderReference(order.ID)
			if _, err := orders.UpdateOne(
				ctx,
				bson.M{"_id": order.ID},
				bson.M{"$set": bson.M{"transactionId": reference, "updatedAt": time.Now()}},
			); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			order.TransactionID = reference
		}

		if order.ShippingCost == 0 {
			price := courier.Quote(ctx, econt.QuoteRequest{
				WeightKg:      order.WeightKg(),
				City:          order.Customer.City,
				PostCode:      order.Customer.PostCode,
				DeclaredValue: order.Total,
			})
			if price > 0 {
				if _, err := orders.UpdateOne(
					ctx,
					bson.M{"_id": order.ID},
					bson.M{"$set": bson.M{"shippingCost": price, "updatedAt": time.Now()}},
				); err != nil {
					respondWithError(c, http.StatusInternalServerError, route, "db error")
					return
				}
				order.ShippingCost = price
			}
		}

		ps, err := builder.BuildPurchase(order)
		if err != nil {
			// Key or signing problems stay in the server log; the customer
			// only sees a generic configuration error.
			log.Printf("[%s] signing failed for order %s: %v", route, order.ID.Hex(), err)
			c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
				[]byte("<h1>Плащането не може да бъде инициирано</h1><p>Моля, опитайте по-късно или изберете наложен платеж.</p>"))
			return
		}

		var buf bytes.Buffer
		if err := redirectTemplate.Execute(&buf, gin.H{
			"Action": builder.Endpoint(),
			"Fields": ps.Fields(),
		}); err != nil {
			log.Printf("[%s] template error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}
}

/* =========================
   NOTIFY (server-to-server)
========================= */

// PaymentNotify is the authoritative server-to-server callback. It always
// answers 200 "OK": the gateway retries on anything else, and an unknown
// reference is a log line, not a client error.
func PaymentNotify(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/payment/notify"
		defer handlePanic(c, route)

		fields := gatewayFields(c)
		reference := gatewayReference(fields)
		outcome := mypos.Classify(fields)

		log.Printf("[%s] reference=%s outcome=%s", route, reference, outcome)

		if reference == "" {
			c.String(http.StatusOK, "OK")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		order, transitioned, err := applyOutcome(ctx, db, courier, reference, outcome)
		if err != nil {
			log.Printf("[%s] reconciliation failed for %s: %v", route, reference, err)
			c.String(http.StatusOK, "OK")
			return
		}

		if transitioned {
			log.Printf("[%s] order %s is now %s", route, order.ID.Hex(), order.PaymentStatus)
		}
		c.String(http.StatusOK, "OK")
	}
}

/* =========================
   BROWSER RETURN
========================= */

// PaymentResult is where the customer's browser lands after the gateway
// round-trip. Database state set by the notification wins; when the
// notification has not arrived yet but the redirect itself carries an
// unambiguous success, the same upgrade (and the same label trigger) is
// applied here as a fallback. A bare redirect with no status information
// renders the pending page, never a failure.
func PaymentResult(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/payment/result"
		defer handlePanic(c, route)

		fields := gatewayFields(c)
		reference := gatewayReference(fields)
		if reference == "" {
			renderResultPage(c, pendingPage(""))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{"transactionId": reference}).Decode(&order)
		if err != nil {
			log.Printf("[%s] order not found for reference %s", route, reference)
			renderResultPage(c, pendingPage(reference))
			return
		}

		if order.IsPaid() {
			clearCartAfterPayment(c, route)
			renderResultPage(c, successPage(reference))
			return
		}

		outcome := mypos.Classify(fields)
		order, _, err = applyOutcome(ctx, db, courier, reference, outcome)
		if err != nil {
			log.Printf("[%s] reconciliation failed for %s: %v", route, reference, err)
			renderResultPage(c, pendingPage(reference))
			return
		}

		switch order.PaymentStatus {
		case models.PaymentStatusPaid:
			clearCartAfterPayment(c, route)
			renderResultPage(c, successPage(reference))
		case models.PaymentStatusCancelled:
			renderResultPage(c, cancelledPage(reference))
		case models.PaymentStatusFailed:
			renderResultPage(c, failedPage(reference))
		default:
			renderResultPage(c, pendingPage(reference))
		}
	}
}

// PaymentCancel marks the order cancelled unless it is already paid — a
// stale cancel tab must never overwrite a completed payment.
func PaymentCancel(db *mongo.Database, courier *econt.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/payment/cancel"
		defer handlePanic(c, route)

		fields := gatewayFields(c)
		reference := gatewayReference(fields)
		if reference == "" {
			renderResultPage(c, cancelledPage(""))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		order, _, err := applyOutcome(ctx, db, courier, reference, mypos.OutcomeCancel)
		if err != nil {
			log.Printf("[%s] reconciliation failed for %s: %v", route, reference, err)
			renderResultPage(c, cancelledPage(reference))
			return
		}

		if order.IsPaid() {
			renderResultPage(c, successPage(reference))
			return
		}
		renderResultPage(c, cancelledPage(reference))
	}
}

func clearCartAfterPayment(c *gin.Context, route string) {
	if err := cart.Clear(sessions.Default(c)); err != nil {
		log.Printf("[%s] failed to clear cart: %v", route, err)
	}
}

package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sakarela/internal/models"
	"sakarela/internal/mypos"
)

func TestNextPaymentStatus(t *testing.T) {
	cases := []struct {
		name       string
		current    string
		outcome    mypos.Outcome
		want       string
		transition bool
	}{
		{"pending to paid", models.PaymentStatusPending, mypos.OutcomeSuccess, models.PaymentStatusPaid, true},
		{"pending to cancelled", models.PaymentStatusPending, mypos.OutcomeCancel, models.PaymentStatusCancelled, true},
		{"pending to failed", models.PaymentStatusPending, mypos.OutcomeFailure, models.PaymentStatusFailed, true},
		{"unknown keeps pending", models.PaymentStatusPending, mypos.OutcomeUnknown, models.PaymentStatusPending, false},

		// Paid is terminal.
		{"failure cannot overwrite paid", models.PaymentStatusPaid, mypos.OutcomeFailure, models.PaymentStatusPaid, false},
		{"cancel cannot overwrite paid", models.PaymentStatusPaid, mypos.OutcomeCancel, models.PaymentStatusPaid, false},
		{"redundant success is a no-op", models.PaymentStatusPaid, mypos.OutcomeSuccess, models.PaymentStatusPaid, false},
		{"unknown keeps paid", models.PaymentStatusPaid, mypos.OutcomeUnknown, models.PaymentStatusPaid, false},

		// A late authoritative success recovers from earlier bad news.
		{"failed upgraded by success", models.PaymentStatusFailed, mypos.OutcomeSuccess, models.PaymentStatusPaid, true},
		{"cancelled upgraded by success", models.PaymentStatusCancelled, mypos.OutcomeSuccess, models.PaymentStatusPaid, true},

		{"redundant failure is a no-op", models.PaymentStatusFailed, mypos.OutcomeFailure, models.PaymentStatusFailed, false},
		{"redundant cancel is a no-op", models.PaymentStatusCancelled, mypos.OutcomeCancel, models.PaymentStatusCancelled, false},
		{"failed can still cancel", models.PaymentStatusFailed, mypos.OutcomeCancel, models.PaymentStatusCancelled, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, transition := nextPaymentStatus(tc.current, tc.outcome)
			if got != tc.want || transition != tc.transition {
				t.Fatalf("nextPaymentStatus(%q, %v) = (%q, %v), want (%q, %v)",
					tc.current, tc.outcome, got, transition, tc.want, tc.transition)
			}
		})
	}
}

func TestStatusGuardMatchesTransitionRule(t *testing.T) {
	// The mongo filter and the pure rule must agree for every
	// (current, outcome) pair, otherwise a race could slip through.
	statuses := []string{
		models.PaymentStatusPending,
		models.PaymentStatusPaid,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
	}
	outcomes := []mypos.Outcome{
		mypos.OutcomeUnknown, mypos.OutcomeSuccess, mypos.OutcomeCancel, mypos.OutcomeFailure,
	}

	for _, outcome := range outcomes {
		target, _, ok := statusGuard(outcome)
		for _, current := range statuses {
			want, wantTransition := nextPaymentStatus(current, outcome)
			if !ok {
				if wantTransition {
					t.Fatalf("outcome %v has no guard but rule transitions %q", outcome, current)
				}
				continue
			}
			if wantTransition && target != want {
				t.Fatalf("outcome %v: guard target %q, rule target %q", outcome, target, want)
			}
		}
	}
}

func testContext(t *testing.T, method, target string, form string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req = httptest.NewRequest(method, target, strings.NewReader(form))
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	c.Request = req
	return c, w
}

func TestGatewayFieldsMergesQueryAndForm(t *testing.T) {
	c, _ := testContext(t, "POST", "/store/payment/notify?OrderID=abc123", "Status=success&RespCode=00")

	fields := gatewayFields(c)
	if fields["OrderID"] != "abc123" {
		t.Fatalf("query parameter lost: %v", fields)
	}
	if fields["Status"] != "success" || fields["RespCode"] != "00" {
		t.Fatalf("form parameters lost: %v", fields)
	}
}

func TestPaymentNotifyAcknowledgesGet(t *testing.T) {
	// The gateway may deliver the notification as GET; the handler must
	// answer 200 "OK" regardless of method. A request without a reference
	// is acknowledged without touching the database.
	for _, method := range []string{"GET", "POST"} {
		c, w := testContext(t, method, "/store/payment/notify", "")
		handler := PaymentNotify(nil, nil)
		handler(c)

		if w.Code != 200 {
			t.Fatalf("%s notification answered %d, want 200", method, w.Code)
		}
		if body := w.Body.String(); body != "OK" {
			t.Fatalf("%s notification answered %q, want OK", method, body)
		}
	}
}

func TestNeedsShipmentLabel(t *testing.T) {
	paidCard := models.Order{
		PaymentMethod: models.PaymentMethodCard,
		PaymentStatus: models.PaymentStatusPaid,
	}

	if !needsShipmentLabel(paidCard, true) {
		t.Fatal("winning success event on an unlabelled card order must label it")
	}

	// The channel that lost the guarded update must not label: the winner
	// already did, and two calls would mean two physical labels.
	if needsShipmentLabel(paidCard, false) {
		t.Fatal("losing channel must not create a second label")
	}

	labelled := paidCard
	labelled.ShipmentNum = "1052000000001"
	if needsShipmentLabel(labelled, true) {
		t.Fatal("labelled order must not be labelled again")
	}

	cash := paidCard
	cash.PaymentMethod = models.PaymentMethodCash
	if needsShipmentLabel(cash, true) {
		t.Fatal("cash orders are labelled at checkout, not by reconciliation")
	}

	cancelled := models.Order{
		PaymentMethod: models.PaymentMethodCard,
		PaymentStatus: models.PaymentStatusCancelled,
	}
	if needsShipmentLabel(cancelled, true) {
		t.Fatal("only paid orders get a label")
	}
}

func TestGatewayReferenceIsCaseInsensitive(t *testing.T) {
	for _, key := range []string{"OrderID", "orderid", "ORDERID", "OrderId"} {
		if got := gatewayReference(map[string]string{key: " ref-1 "}); got != "ref-1" {
			t.Fatalf("key %q: got %q", key, got)
		}
	}
	if got := gatewayReference(map[string]string{"Status": "success"}); got != "" {
		t.Fatalf("expected empty reference, got %q", got)
	}
}

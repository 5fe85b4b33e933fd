package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/wallet", "200", 0.05)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/wallet", "200"))
	assert.Equal(t, float64(1), count)
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/orders", "200", 0.1)
	RecordHTTPRequest("POST", "/orders", "200", 0.2)
	RecordHTTPRequest("POST", "/orders", "402", 0.05)

	okCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/orders", "200"))
	failCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/orders", "402"))

	assert.Equal(t, float64(2), okCount)
	assert.Equal(t, float64(1), failCount)
}

func TestRecordOrder(t *testing.T) {
	OrdersTotal.Reset()

	RecordOrder("success", "mtn")
	RecordOrder("success", "mtn")
	RecordOrder("failed", "glo")

	mtnSuccess := testutil.ToFloat64(OrdersTotal.WithLabelValues("success", "mtn"))
	gloFailed := testutil.ToFloat64(OrdersTotal.WithLabelValues("failed", "glo"))

	assert.Equal(t, float64(2), mtnSuccess)
	assert.Equal(t, float64(1), gloFailed)
}

func TestRecordPaymentVerification(t *testing.T) {
	PaymentsVerifiedTotal.Reset()

	RecordPaymentVerification("success")
	RecordPaymentVerification("cached")
	RecordPaymentVerification("failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(PaymentsVerifiedTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PaymentsVerifiedTotal.WithLabelValues("cached")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PaymentsVerifiedTotal.WithLabelValues("failed")))
}

func TestRecordLedgerEntry(t *testing.T) {
	LedgerEntriesTotal.Reset()

	RecordLedgerEntry("credit")
	RecordLedgerEntry("debit")
	RecordLedgerEntry("debit")

	assert.Equal(t, float64(1), testutil.ToFloat64(LedgerEntriesTotal.WithLabelValues("credit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(LedgerEntriesTotal.WithLabelValues("debit")))
}

func TestRecordWebhook(t *testing.T) {
	WebhooksTotal.Reset()

	RecordWebhook("processed")
	RecordWebhook("invalid_signature")

	assert.Equal(t, float64(1), testutil.ToFloat64(WebhooksTotal.WithLabelValues("processed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WebhooksTotal.WithLabelValues("invalid_signature")))
}

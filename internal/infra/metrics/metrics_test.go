package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"pos/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveCheckout("ok", 12*time.Millisecond)
	m.ObserveCheckout("ok", 3*time.Millisecond)
	m.ObserveCheckout("CONFLICT", time.Millisecond)
	m.ObserveAdjustment(model.ChangeOutbound, "NEGATIVE_STOCK")
	m.ObserveCatalogEvent("sale")
	m.ObserveRequest("/checkout", 201, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `pos_checkout_total{outcome="ok"} 2`)
	assert.Contains(t, body, `pos_checkout_total{outcome="CONFLICT"} 1`)
	assert.Contains(t, body, `pos_inventory_adjustments_total{change_type="outbound",outcome="NEGATIVE_STOCK"} 1`)
	assert.Contains(t, body, `pos_catalog_events_total{reason="sale"} 1`)
	assert.Contains(t, body, `pos_http_requests_total{handler="/checkout",status="201"} 1`)
	assert.Contains(t, body, `pos_checkout_duration_ms_count{outcome="ok"} 2`)
}

// レジストリが独立していること
func TestMetrics_NewTwice(t *testing.T) {
	a := New()
	b := New()
	a.ObserveCatalogEvent("sale")

	assert.Contains(t, scrape(t, a), `pos_catalog_events_total{reason="sale"} 1`)
	assert.NotContains(t, scrape(t, b), `pos_catalog_events_total{reason="sale"}`)
}

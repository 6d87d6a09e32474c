package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTP(t *testing.T) {
	c := HTTPRequestsTotal.WithLabelValues("GET", "/api/test-route", "200")
	before := testutil.ToFloat64(c)

	ObserveHTTP("GET", "/api/test-route", 200, 15*time.Millisecond)
	ObserveHTTP("GET", "/api/test-route", 200, 5*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(c))
}

func TestRecordAuthz(t *testing.T) {
	deny := AuthzDecisionsTotal.WithLabelValues("test.op", "deny")
	allow := AuthzDecisionsTotal.WithLabelValues("test.op", "allow")
	d0, a0 := testutil.ToFloat64(deny), testutil.ToFloat64(allow)

	RecordAuthz("test.op", false)
	RecordAuthz("test.op", true)
	RecordAuthz("test.op", true)

	assert.Equal(t, d0+1, testutil.ToFloat64(deny))
	assert.Equal(t, a0+2, testutil.ToFloat64(allow))
}

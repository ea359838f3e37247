package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterCollectMetrics()
	RegisterCollectMetrics()
	RegisterSearchMetrics()
	RegisterSearchMetrics()
}

func TestPlatformFetchTotal_Labels(t *testing.T) {
	RegisterCollectMetrics()
	before := testutil.ToFloat64(PlatformFetchTotal.WithLabelValues("reddit", "success"))
	PlatformFetchTotal.WithLabelValues("reddit", "success").Inc()
	after := testutil.ToFloat64(PlatformFetchTotal.WithLabelValues("reddit", "success"))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %v", after-before)
	}
}

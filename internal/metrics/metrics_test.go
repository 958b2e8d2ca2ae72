package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsExported(t *testing.T) {
	Held.Set(1)
	PatchIndex.Set(7)
	Commands.WithLabelValues("serial", "query").Inc()

	if v := testutil.ToFloat64(PatchIndex); v != 7 {
		t.Fatalf("patch gauge = %v", v)
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"lightdimmer_arbitration_held 1",
		"lightdimmer_patch_selected 7",
		`lightdimmer_protocol_commands_total{kind="query",port="serial"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

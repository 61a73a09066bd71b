//go:build integration

package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// The server under test is expected to run with the cmd/server/testdata
// fixture loaded, e.g. PULSE_STORE_FIXTURE=cmd/server/testdata/pulse.yaml.
func baseURL() string {
	if v := os.Getenv("PULSE_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestAnalyticsJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	var health struct {
		OK   bool   `json:"ok"`
		Name string `json:"name"`
	}
	doGet(t, client, base+"/health", http.StatusOK, &health)
	if !health.OK {
		t.Fatalf("unexpected health response: %+v", health)
	}

	var list struct {
		Surveys []struct {
			ID        string `json:"id"`
			Questions int    `json:"questions"`
		} `json:"surveys"`
	}
	doGet(t, client, base+"/api/surveys", http.StatusOK, &list)
	if len(list.Surveys) == 0 {
		t.Fatalf("expected at least one survey, got none")
	}
	sid := list.Surveys[0].ID

	var overview struct {
		SID            string  `json:"sid"`
		TotalResponses int     `json:"totalResponses"`
		CompletionRate float64 `json:"completionRate"`
	}
	doGet(t, client, base+"/api/surveys/"+sid+"/analytics", http.StatusOK, &overview)
	if overview.SID != sid || overview.TotalResponses == 0 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
	if overview.CompletionRate < 0 || overview.CompletionRate > 100 {
		t.Fatalf("completion rate out of range: %v", overview.CompletionRate)
	}

	for _, rt := range []string{"categories", "scores", "toggle-checkbox", "feedback", "full"} {
		var report map[string]any
		doGet(t, client, base+"/api/surveys/"+sid+"/analytics?reportType="+rt, http.StatusOK, &report)
		if report["sid"] != sid {
			t.Fatalf("%s report for wrong survey: %v", rt, report["sid"])
		}
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	doGet(t, client, base+"/api/surveys/"+sid+"/analytics?reportType=sentiment", http.StatusBadRequest, &apiErr)
	if apiErr.Code != "invalid" {
		t.Fatalf("expected invalid code, got %q", apiErr.Code)
	}
	doGet(t, client, base+"/api/surveys/does-not-exist/analytics", http.StatusNotFound, &apiErr)

	csv := doGet(t, client, base+"/api/surveys/"+sid+"/export?format=csv", http.StatusOK, nil)
	if !strings.HasPrefix(csv, "question_id,") {
		t.Fatalf("unexpected csv export: %q", csv)
	}

	metrics := doGet(t, client, base+"/metrics", http.StatusOK, nil)
	if !strings.Contains(metrics, "pulse_http_requests_total") {
		t.Fatalf("metrics missing request counter")
	}
}

func doGet(t *testing.T, client *http.Client, url string, wantStatus int, out any) string {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("http get %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body from %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(body))
	}
	if resp.Header.Get("Cache-Control") == "" {
		t.Fatalf("missing Cache-Control header on %s", url)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return string(body)
}

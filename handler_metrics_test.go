package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestMetrics(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/api/v1/metrics", nil)
	w := httptest.NewRecorder()
	handleMetrics(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct{ Data StockMetrics }
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	m := resp.Data

	// Seed data: 5 line items over 4 part numbers, 45 units.
	if m.LineItems != 5 {
		t.Errorf("line items = %d, want 5", m.LineItems)
	}
	if m.PartNumbers != 4 {
		t.Errorf("part numbers = %d, want 4", m.PartNumbers)
	}
	if m.TotalUnits != 45 {
		t.Errorf("total units = %d, want 45", m.TotalUnits)
	}
	if m.ByCondition["new"] != 40 {
		t.Errorf("new units = %d, want 40", m.ByCondition["new"])
	}
	if m.ByCondition["oh"] != 2 {
		t.Errorf("oh units = %d, want 2", m.ByCondition["oh"])
	}
}

func TestMetricsEmpty(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	db.Exec("DELETE FROM stock")

	req := httptest.NewRequest("GET", "/api/v1/metrics", nil)
	w := httptest.NewRecorder()
	handleMetrics(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct{ Data StockMetrics }
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.TotalUnits != 0 || resp.Data.LineItems != 0 {
		t.Errorf("empty stock metrics = %+v", resp.Data)
	}
}

package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func parseStockItem(body []byte) StockItem {
	var resp struct{ Data StockItem }
	json.Unmarshal(body, &resp)
	return resp.Data
}

func parseStockList(body []byte) []StockItem {
	var resp struct{ Data []StockItem }
	json.Unmarshal(body, &resp)
	return resp.Data
}

func TestStockCRUD(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	// Create
	body := `{"part_number":"nas1149-f0363p","description":"Washer","quantity":100,"condition":"new","location":"Bin E-01"}`
	req := authedRequest("POST", "/api/v1/stock", body, cookie)
	w := httptest.NewRecorder()
	handleStock(w, req)
	if w.Code != 200 {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	created := parseStockItem(w.Body.Bytes())
	if created.ID == "" {
		t.Fatal("expected stock ID")
	}
	if created.PartNumber != "NAS1149-F0363P" {
		t.Errorf("part number not uppercased: %s", created.PartNumber)
	}

	// Get
	req = authedRequest("GET", "/api/v1/stock/"+created.ID, "", cookie)
	w = httptest.NewRecorder()
	handleStockItem(w, req)
	if w.Code != 200 {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	if got := parseStockItem(w.Body.Bytes()); got.Quantity != 100 {
		t.Errorf("quantity = %d", got.Quantity)
	}

	// Update
	body = `{"part_number":"NAS1149-F0363P","description":"Washer","quantity":80,"condition":"new","location":"Bin E-02"}`
	req = authedRequest("PUT", "/api/v1/stock/"+created.ID, body, cookie)
	w = httptest.NewRecorder()
	handleStockItem(w, req)
	if w.Code != 200 {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := parseStockItem(w.Body.Bytes()); got.Quantity != 80 || got.Location != "Bin E-02" {
		t.Errorf("update not applied: %+v", got)
	}

	// Delete
	req = authedRequest("DELETE", "/api/v1/stock/"+created.ID, "", cookie)
	w = httptest.NewRecorder()
	handleStockItem(w, req)
	if w.Code != 200 {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	req = authedRequest("GET", "/api/v1/stock/"+created.ID, "", cookie)
	w = httptest.NewRecorder()
	handleStockItem(w, req)
	if w.Code != 404 {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestStockValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing part number", `{"quantity":1,"condition":"new"}`},
		{"bad condition", `{"part_number":"X-1","quantity":1,"condition":"mint"}`},
		{"negative quantity", `{"part_number":"X-1","quantity":-2,"condition":"new"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest("POST", "/api/v1/stock", tc.body, cookie)
			w := httptest.NewRecorder()
			handleStock(w, req)
			if w.Code != 400 {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestStockListFilters(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/stock?condition=oh", "", cookie)
	w := httptest.NewRecorder()
	handleStock(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, it := range parseStockList(w.Body.Bytes()) {
		if it.Condition != "oh" {
			t.Errorf("condition filter leaked %s (%s)", it.ID, it.Condition)
		}
	}

	req = authedRequest("GET", "/api/v1/stock?search=fuel", "", cookie)
	w = httptest.NewRecorder()
	handleStock(w, req)
	list := parseStockList(w.Body.Bytes())
	if len(list) != 2 {
		t.Errorf("search=fuel returned %d rows, want 2", len(list))
	}
}

func TestStockListPagination(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/stock?page=1&limit=2", "", cookie)
	w := httptest.NewRecorder()
	handleStock(w, req)

	var resp struct {
		Data []StockItem
		Meta *Meta
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("page size = %d, want 2", len(resp.Data))
	}
	if resp.Meta == nil || resp.Meta.Total != 5 {
		t.Errorf("meta = %+v, want total 5", resp.Meta)
	}
}

func TestStockAuditTrail(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	body := `{"part_number":"AUD-1","quantity":1,"condition":"new"}`
	req := authedRequest("POST", "/api/v1/stock", body, cookie)
	w := httptest.NewRecorder()
	handleStock(w, req)
	if w.Code != 200 {
		t.Fatal(w.Body.String())
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE module = 'stock' AND action = 'CREATE' AND username = 'admin'").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 audit entry, got %d", count)
	}
}

package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestStockImportCSV(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	csvBody := "part_number,description,quantity,condition,serial_number,location\n" +
		"wx-100,Hydraulic filter,3,new,,Shelf F-01\n" +
		"WX-101,Brake unit,1,oh,BU-55,Rack G-02\n"

	req := authedRequest("POST", "/api/v1/stock/import", csvBody, cookie)
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	handleStockImport(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct{ Data ImportResult }
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Imported != 2 || resp.Data.Failed != 0 {
		t.Fatalf("imported=%d failed=%d: %v", resp.Data.Imported, resp.Data.Failed, resp.Data.Errors)
	}

	var pn string
	db.QueryRow("SELECT part_number FROM stock WHERE serial_number='BU-55'").Scan(&pn)
	if pn != "WX-101" {
		t.Errorf("imported part number = %q", pn)
	}
}

func TestStockImportPartialFailure(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	csvBody := "part_number,quantity,condition\n" +
		"GOOD-1,2,new\n" +
		",1,new\n" + // missing part number
		"BAD-COND,1,mint\n" + // invalid condition
		"BAD-QTY,abc,new\n" // non-numeric quantity

	req := authedRequest("POST", "/api/v1/stock/import", csvBody, cookie)
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	handleStockImport(w, req)

	var resp struct{ Data ImportResult }
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Imported != 1 {
		t.Errorf("imported = %d, want 1", resp.Data.Imported)
	}
	if resp.Data.Failed != 3 {
		t.Errorf("failed = %d, want 3: %v", resp.Data.Failed, resp.Data.Errors)
	}
	// Each failure names its line.
	for _, msg := range resp.Data.Errors {
		if !strings.HasPrefix(msg, "line ") {
			t.Errorf("error without line reference: %q", msg)
		}
	}
}

func TestStockImportMissingPartNumberColumn(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("POST", "/api/v1/stock/import", "description,quantity\nfoo,1\n", cookie)
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	handleStockImport(w, req)
	if w.Code != 400 {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestStockExportCSV(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/stock/export?format=csv", "", cookie)
	w := httptest.NewRecorder()
	handleStockExport(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %s", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	// Header plus the 5 seed rows.
	if len(lines) != 6 {
		t.Errorf("expected 6 CSV lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID,Part Number") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestStockExportXLSX(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/stock/export?format=xlsx", "", cookie)
	w := httptest.NewRecorder()
	handleStockExport(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("response is not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Stock")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Errorf("expected 6 sheet rows, got %d", len(rows))
	}
}

func TestStockExportConditionFilter(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/stock/export?format=csv&condition=new", "", cookie)
	w := httptest.NewRecorder()
	handleStockExport(w, req)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected header plus 1 row, got %d lines", len(lines))
	}
}

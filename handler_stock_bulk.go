package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

func handleStockImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "missing file upload")
			return
		}
		defer file.Close()
		src = file
	}

	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "empty or unreadable CSV")
		return
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["part_number"]; !ok {
		jsonErr(w, http.StatusBadRequest, "CSV must have a part_number column")
		return
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := ImportResult{Errors: []string{}}
	now := time.Now().Format("2006-01-02 15:04:05")
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		qty := 1
		if q := field(row, "quantity"); q != "" {
			qty, err = strconv.Atoi(q)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: quantity %q is not a number", line, q))
				continue
			}
		}

		in := StockInput{
			PartNumber:   strings.ToUpper(field(row, "part_number")),
			Description:  field(row, "description"),
			Quantity:     qty,
			Condition:    strings.ToLower(field(row, "condition")),
			SerialNumber: field(row, "serial_number"),
			Location:     field(row, "location"),
		}
		if ve := in.validate(); ve != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", line, ve.Error()))
			continue
		}

		id := nextID("ST", "stock", 5)
		_, err = db.Exec(`INSERT INTO stock (id, part_number, description, quantity, condition, serial_number, location, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			id, in.PartNumber, in.Description, in.Quantity, in.Condition, in.SerialNumber, in.Location, now, now)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		logAudit(getUsername(r), AuditActionImport, "stock", "bulk",
			fmt.Sprintf("Imported %d stock rows (%d failed)", result.Imported, result.Failed))
		broadcast("stock", "imported", result.Imported)
	}

	jsonResp(w, http.StatusOK, result)
}

func handleStockExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	query := `SELECT id, part_number, COALESCE(description,''), quantity, condition,
		COALESCE(serial_number,''), COALESCE(location,''), created_at
		FROM stock WHERE 1=1`
	var args []interface{}
	if cond := r.URL.Query().Get("condition"); cond != "" {
		query += " AND condition = ?"
		args = append(args, cond)
	}
	query += " ORDER BY part_number, id"

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	headers := []string{"ID", "Part Number", "Description", "Quantity", "Condition", "Serial Number", "Location", "Created At"}
	var data [][]string
	for rows.Next() {
		var id, pn, desc, cond, serial, location, createdAt string
		var qty int
		rows.Scan(&id, &pn, &desc, &qty, &cond, &serial, &location, &createdAt)
		data = append(data, []string{id, pn, desc, strconv.Itoa(qty), cond, serial, location, createdAt})
	}

	logAudit(getUsername(r), AuditActionExport, "stock", "bulk",
		fmt.Sprintf("Exported %d stock rows as %s", len(data), format))

	if format == "xlsx" {
		exportExcel(w, "Stock", headers, data)
	} else {
		exportCSV(w, "stock.csv", headers, data)
	}
}

// exportCSV writes a CSV attachment.
func exportCSV(w http.ResponseWriter, filename string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		http.Error(w, "Failed to write CSV headers", 500)
		return
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			http.Error(w, "Failed to write CSV row", 500)
			return
		}
	}
}

// exportExcel writes an XLSX attachment with a styled header row.
func exportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, "Failed to create Excel sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		http.Error(w, "Failed to create header style", 500)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(sheetName)))

	if err := f.Write(w); err != nil {
		http.Error(w, "Failed to write Excel file", 500)
		return
	}
}

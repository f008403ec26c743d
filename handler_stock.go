package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aeroparts/internal/models"
)

type StockInput struct {
	PartNumber   string `json:"part_number"`
	Description  string `json:"description"`
	Quantity     int    `json:"quantity"`
	Condition    string `json:"condition"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
}

func (in *StockInput) validate() *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "part_number", in.PartNumber)
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	validatePositiveInt(ve, "quantity", in.Quantity)
	if in.Condition == "" {
		in.Condition = models.ConditionNew
	}
	validateEnum(ve, "condition", in.Condition, models.Conditions)
	validateMaxLength(ve, "part_number", in.PartNumber, 64)
	validateMaxLength(ve, "description", in.Description, 500)
	validateMaxLength(ve, "serial_number", in.SerialNumber, 64)
	validateMaxLength(ve, "location", in.Location, 100)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func handleStock(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listStock(w, r)
	case http.MethodPost:
		createStock(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func handleStockItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/stock/")
	if id == "" || strings.Contains(id, "/") {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		getStock(w, r, id)
	case http.MethodPut:
		updateStock(w, r, id)
	case http.MethodDelete:
		deleteStock(w, r, id)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func listStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	limit := parseIntDefault(q.Get("limit"), 50)
	if limit > 500 {
		limit = 500
	}

	where := []string{"1=1"}
	args := []interface{}{}

	if search := strings.TrimSpace(q.Get("search")); search != "" {
		where = append(where, "(part_number LIKE ? OR description LIKE ? OR serial_number LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if cond := q.Get("condition"); cond != "" {
		where = append(where, "condition = ?")
		args = append(args, cond)
	}
	if loc := q.Get("location"); loc != "" {
		where = append(where, "location = ?")
		args = append(args, loc)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM stock WHERE "+whereClause, args...).Scan(&total); err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}

	query := fmt.Sprintf(`SELECT id, part_number, COALESCE(description,''), quantity, condition,
		COALESCE(serial_number,''), COALESCE(location,''), created_at, updated_at
		FROM stock WHERE %s ORDER BY part_number, id LIMIT ? OFFSET ?`, whereClause)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	items := []StockItem{}
	for rows.Next() {
		item, err := models.ScanStockItem(rows)
		if err != nil {
			jsonErr(w, http.StatusInternalServerError, "database error")
			return
		}
		items = append(items, item)
	}

	jsonRespMeta(w, http.StatusOK, items, total, page, limit)
}

func getStock(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow(`SELECT id, part_number, COALESCE(description,''), quantity, condition,
		COALESCE(serial_number,''), COALESCE(location,''), created_at, updated_at
		FROM stock WHERE id = ?`, id)

	var item StockItem
	err := row.Scan(&item.ID, &item.PartNumber, &item.Description, &item.Quantity,
		&item.Condition, &item.SerialNumber, &item.Location, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		jsonErr(w, http.StatusNotFound, "stock item not found")
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}

	jsonResp(w, http.StatusOK, item)
}

func createStock(w http.ResponseWriter, r *http.Request) {
	var in StockInput
	if err := decodeBody(r, &in); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.PartNumber = strings.ToUpper(strings.TrimSpace(in.PartNumber))
	if ve := in.validate(); ve != nil {
		jsonErr(w, http.StatusBadRequest, ve.Error())
		return
	}

	id := nextID("ST", "stock", 5)
	now := time.Now().Format("2006-01-02 15:04:05")
	_, err := db.Exec(`INSERT INTO stock (id, part_number, description, quantity, condition, serial_number, location, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		id, in.PartNumber, in.Description, in.Quantity, in.Condition, in.SerialNumber, in.Location, now, now)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to create stock item")
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "stock", id, fmt.Sprintf("Added %s x%d (%s)", in.PartNumber, in.Quantity, in.Condition))
	broadcast("stock", "created", id)

	getStock(w, r, id)
}

func updateStock(w http.ResponseWriter, r *http.Request, id string) {
	var in StockInput
	if err := decodeBody(r, &in); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.PartNumber = strings.ToUpper(strings.TrimSpace(in.PartNumber))
	if ve := in.validate(); ve != nil {
		jsonErr(w, http.StatusBadRequest, ve.Error())
		return
	}

	res, err := db.Exec(`UPDATE stock SET part_number = ?, description = ?, quantity = ?, condition = ?,
		serial_number = ?, location = ?, updated_at = ? WHERE id = ?`,
		in.PartNumber, in.Description, in.Quantity, in.Condition, in.SerialNumber, in.Location,
		time.Now().Format("2006-01-02 15:04:05"), id)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to update stock item")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, http.StatusNotFound, "stock item not found")
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "stock", id, fmt.Sprintf("Updated %s", in.PartNumber))
	broadcast("stock", "updated", id)

	getStock(w, r, id)
}

func deleteStock(w http.ResponseWriter, r *http.Request, id string) {
	var pn string
	if err := db.QueryRow("SELECT part_number FROM stock WHERE id = ?", id).Scan(&pn); err == sql.ErrNoRows {
		jsonErr(w, http.StatusNotFound, "stock item not found")
		return
	}

	if _, err := db.Exec("DELETE FROM stock WHERE id = ?", id); err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to delete stock item")
		return
	}

	logAudit(getUsername(r), AuditActionDelete, "stock", id, fmt.Sprintf("Deleted %s", pn))
	broadcast("stock", "deleted", id)

	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}

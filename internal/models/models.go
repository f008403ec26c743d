package models

import (
	"database/sql"
	"fmt"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Condition codes for aftermarket aviation parts.
const (
	ConditionNew         = "new"
	ConditionOverhauled  = "oh"
	ConditionServiceable = "sv"
	ConditionAsRemoved   = "ar"
	ConditionRepaired    = "rep"
	ConditionUsed        = "used"
)

// Conditions lists every valid condition code.
var Conditions = []string{
	ConditionNew, ConditionOverhauled, ConditionServiceable,
	ConditionAsRemoved, ConditionRepaired, ConditionUsed,
}

// ConditionLabels maps condition codes to the display labels used in
// outgoing quote emails.
var ConditionLabels = map[string]string{
	ConditionNew:         "New",
	ConditionOverhauled:  "Overhauled",
	ConditionServiceable: "Serviceable",
	ConditionAsRemoved:   "As Removed",
	ConditionRepaired:    "Repaired",
	ConditionUsed:        "Used",
}

// ValidCondition reports whether code is a known condition code.
func ValidCondition(code string) bool {
	for _, c := range Conditions {
		if c == code {
			return true
		}
	}
	return false
}

// StockItem is one physical unit (or lot) of a component on hand.
// Part numbers are not unique: several rows can share one part number,
// each tracking its own serial number and location.
type StockItem struct {
	ID           string `json:"id"`
	PartNumber   string `json:"part_number"`
	Description  string `json:"description"`
	Quantity     int    `json:"quantity"`
	Condition    string `json:"condition"`
	SerialNumber string `json:"serial_number,omitempty"`
	Location     string `json:"location,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// ScanStockItem decodes one stock row. It fails fast on a malformed row
// instead of letting zero values leak into results.
func ScanStockItem(rows *sql.Rows) (StockItem, error) {
	var it StockItem
	if err := rows.Scan(&it.ID, &it.PartNumber, &it.Description, &it.Quantity,
		&it.Condition, &it.SerialNumber, &it.Location, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return StockItem{}, fmt.Errorf("decode stock row: %w", err)
	}
	if it.ID == "" || it.PartNumber == "" {
		return StockItem{}, fmt.Errorf("decode stock row: missing id or part number")
	}
	if it.Quantity < 1 {
		return StockItem{}, fmt.Errorf("decode stock row %s: quantity %d < 1", it.ID, it.Quantity)
	}
	return it, nil
}

// PartGroup aggregates the stock rows sharing one part number.
type PartGroup struct {
	PartNumber    string      `json:"part_number"`
	Description   string      `json:"description"`
	Items         []StockItem `json:"items"`
	TotalQuantity int         `json:"total_quantity"`
}

// Inquiry is a contact/RFQ or AOG emergency request submitted through
// the public site.
type Inquiry struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"` // contact | aog
	Name       string `json:"name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	PartNumber string `json:"part_number,omitempty"`
	Aircraft   string `json:"aircraft,omitempty"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// StockMetrics is the aggregate statistics panel shown on the public site.
type StockMetrics struct {
	LineItems   int            `json:"line_items"`
	PartNumbers int            `json:"part_numbers"`
	TotalUnits  int            `json:"total_units"`
	ByCondition map[string]int `json:"by_condition"`
}

package main

import "net/http"

// handleMetrics serves the public stock summary shown on the landing
// page. Aggregates only, never individual rows.
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var m StockMetrics
	m.ByCondition = map[string]int{}

	err := db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT part_number), COALESCE(SUM(quantity), 0) FROM stock`).
		Scan(&m.LineItems, &m.PartNumbers, &m.TotalUnits)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}

	rows, err := db.Query(`SELECT condition, SUM(quantity) FROM stock GROUP BY condition`)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var cond string
		var units int
		if err := rows.Scan(&cond, &units); err != nil {
			jsonErr(w, http.StatusInternalServerError, "database error")
			return
		}
		m.ByCondition[cond] = units
	}

	jsonResp(w, http.StatusOK, m)
}

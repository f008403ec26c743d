package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"aeroparts/internal/validation"
)

type InquiryInput struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PartNumber string `json:"part_number"`
	Aircraft   string `json:"aircraft"`
	Message    string `json:"message"`
}

func handleInquiries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	listInquiries(w, r)
}

func handleInquiryItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/inquiries/")

	// The two public intake endpoints live under the same prefix.
	switch rest {
	case "contact":
		createInquiry(w, r, "contact")
		return
	case "aog":
		createInquiry(w, r, "aog")
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		getInquiry(w, r, rest)
	case http.MethodPut:
		updateInquiry(w, r, rest)
	case http.MethodDelete:
		deleteInquiry(w, r, rest)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func createInquiry(w http.ResponseWriter, r *http.Request, kind string) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in InquiryInput
	if err := decodeBody(r, &in); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "name", in.Name)
	requireField(ve, "email", in.Email)
	validateEmail(ve, "email", in.Email)
	if kind == "aog" {
		// AOG requests need a part and an aircraft so the desk can act
		// without a round trip.
		requireField(ve, "part_number", in.PartNumber)
		requireField(ve, "aircraft", in.Aircraft)
	} else {
		requireField(ve, "message", in.Message)
	}
	validateMaxLength(ve, "name", in.Name, 100)
	validateMaxLength(ve, "message", in.Message, 5000)
	if ve.HasErrors() {
		jsonErr(w, http.StatusBadRequest, ve.Error())
		return
	}

	prefix := "INQ"
	if kind == "aog" {
		prefix = "AOG"
	}
	id := nextID(prefix, "inquiries", 5)
	_, err := db.Exec(`INSERT INTO inquiries (id, kind, name, company, email, phone, part_number, aircraft, message, status)
		VALUES (?,?,?,?,?,?,?,?,?,'new')`,
		id, kind, in.Name, in.Company, in.Email, in.Phone,
		strings.ToUpper(strings.TrimSpace(in.PartNumber)), in.Aircraft, in.Message)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to save inquiry")
		return
	}

	notifyInquiry(id, kind, in)
	broadcast("inquiry", "created", id)

	jsonResp(w, http.StatusCreated, map[string]string{"id": id, "status": "received"})
}

// notifyInquiry emails the appropriate desk about a new inquiry,
// best effort.
func notifyInquiry(id, kind string, in InquiryInput) {
	to := appConfig.OpsMailbox
	subject := fmt.Sprintf("Contact inquiry %s from %s", id, in.Name)
	if kind == "aog" {
		to = appConfig.AOGMailbox
		subject = fmt.Sprintf("AOG %s: %s needed for %s", id, in.PartNumber, in.Aircraft)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inquiry: %s\nName: %s\n", id, in.Name)
	if in.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", in.Company)
	}
	fmt.Fprintf(&b, "Email: %s\n", in.Email)
	if in.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", in.Phone)
	}
	if in.PartNumber != "" {
		fmt.Fprintf(&b, "Part number: %s\n", in.PartNumber)
	}
	if in.Aircraft != "" {
		fmt.Fprintf(&b, "Aircraft: %s\n", in.Aircraft)
	}
	if in.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", in.Message)
	}

	if err := sendEmail(to, subject, b.String()); err != nil {
		log.Printf("inquiry %s: notification send failed: %v", id, err)
	}
}

func listInquiries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	limit := parseIntDefault(q.Get("limit"), 50)
	if limit > 500 {
		limit = 500
	}

	where := []string{"1=1"}
	args := []interface{}{}
	if kind := q.Get("kind"); kind != "" {
		where = append(where, "kind = ?")
		args = append(args, kind)
	}
	if status := q.Get("status"); status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM inquiries WHERE "+whereClause, args...).Scan(&total); err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}

	query := fmt.Sprintf(`SELECT id, kind, name, COALESCE(company,''), email, COALESCE(phone,''),
		COALESCE(part_number,''), COALESCE(aircraft,''), COALESCE(message,''), status, created_at
		FROM inquiries WHERE %s ORDER BY created_at DESC LIMIT ? OFFSET ?`, whereClause)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	items := []Inquiry{}
	for rows.Next() {
		var inq Inquiry
		if err := rows.Scan(&inq.ID, &inq.Kind, &inq.Name, &inq.Company, &inq.Email, &inq.Phone,
			&inq.PartNumber, &inq.Aircraft, &inq.Message, &inq.Status, &inq.CreatedAt); err != nil {
			jsonErr(w, http.StatusInternalServerError, "database error")
			return
		}
		items = append(items, inq)
	}

	jsonRespMeta(w, http.StatusOK, items, total, page, limit)
}

func getInquiry(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow(`SELECT id, kind, name, COALESCE(company,''), email, COALESCE(phone,''),
		COALESCE(part_number,''), COALESCE(aircraft,''), COALESCE(message,''), status, created_at
		FROM inquiries WHERE id = ?`, id)

	var inq Inquiry
	err := row.Scan(&inq.ID, &inq.Kind, &inq.Name, &inq.Company, &inq.Email, &inq.Phone,
		&inq.PartNumber, &inq.Aircraft, &inq.Message, &inq.Status, &inq.CreatedAt)
	if err == sql.ErrNoRows {
		jsonErr(w, http.StatusNotFound, "inquiry not found")
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}

	jsonResp(w, http.StatusOK, inq)
}

func updateInquiry(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ve := &ValidationErrors{}
	validateEnum(ve, "status", req.Status, validation.ValidInquiryStatuses)
	if ve.HasErrors() {
		jsonErr(w, http.StatusBadRequest, ve.Error())
		return
	}

	res, err := db.Exec("UPDATE inquiries SET status = ? WHERE id = ?", req.Status, id)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to update inquiry")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, http.StatusNotFound, "inquiry not found")
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "inquiry", id, fmt.Sprintf("Status set to %s", req.Status))
	broadcast("inquiry", "updated", id)

	getInquiry(w, r, id)
}

func deleteInquiry(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("DELETE FROM inquiries WHERE id = ?", id)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to delete inquiry")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, http.StatusNotFound, "inquiry not found")
		return
	}

	logAudit(getUsername(r), AuditActionDelete, "inquiry", id, "Deleted inquiry")
	broadcast("inquiry", "deleted", id)

	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}

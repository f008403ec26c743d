package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"aeroparts/internal/quote"
	"aeroparts/internal/validation"
)

// quoteSessions is assigned in main (and in test setup).
var quoteSessions *quote.Registry

// quoteSession resolves the caller's quote session from the aero_quote
// cookie, assigning a fresh one when the cookie is missing.
func quoteSession(w http.ResponseWriter, r *http.Request) *quote.Session {
	var id string
	if cookie, err := r.Cookie("aero_quote"); err == nil && cookie.Value != "" {
		id = cookie.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     "aero_quote",
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return quoteSessions.Get(id)
}

type SearchRequest struct {
	Mode  string `json:"mode,omitempty"`
	Query string `json:"query"`
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SearchRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = "single"
	}

	ve := &ValidationErrors{}
	validateEnum(ve, "mode", req.Mode, validation.ValidSearchModes)
	terms := quote.ParseTerms(req.Query)
	if len(terms) == 0 {
		ve.Add("query", "enter at least one part number")
	}
	if ve.HasErrors() {
		jsonErr(w, http.StatusBadRequest, ve.Error())
		return
	}
	// Single mode is a one-term search regardless of what was pasted in.
	if req.Mode == "single" && len(terms) > 1 {
		terms = terms[:1]
	}

	sess := quoteSession(w, r)
	token := sess.BeginSearch()

	inv := &quote.SQLInventory{DB: db}
	items, err := inv.FindByPartNumbers(r.Context(), terms)
	if err != nil {
		log.Printf("stock lookup failed: %v", err)
		sess.FailSearch(token, "stock lookup failed")
		jsonErr(w, http.StatusBadGateway, "stock lookup failed")
		return
	}

	groups, notFound := quote.Partition(terms, items)
	if !sess.ApplyResults(token, terms, groups, notFound) {
		// A newer search superseded this one; report its state instead.
		jsonResp(w, http.StatusOK, sess.Snapshot())
		return
	}
	jsonResp(w, http.StatusOK, sess.Snapshot())
}

type SelectRequest struct {
	ItemID     string `json:"item_id,omitempty"`
	PartNumber string `json:"part_number,omitempty"`
	NotFound   bool   `json:"not_found,omitempty"`
	Checked    bool   `json:"checked"`
}

func handleSearchSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SelectRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" && req.PartNumber == "" {
		jsonErr(w, http.StatusBadRequest, "item_id or part_number is required")
		return
	}

	sess := quoteSession(w, r)
	switch {
	case req.ItemID != "":
		sess.ToggleItem(req.ItemID, req.Checked)
	case req.NotFound:
		sess.ToggleNotFound(req.PartNumber, req.Checked)
	default:
		sess.ToggleGroup(req.PartNumber, req.Checked)
	}
	jsonResp(w, http.StatusOK, sess.Snapshot())
}

func handleSearchSelectAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sess := quoteSession(w, r)
	sess.ToggleAll()
	jsonResp(w, http.StatusOK, sess.Snapshot())
}

type QuantityRequest struct {
	PartNumber string `json:"part_number"`
	Quantity   int    `json:"quantity"`
}

func handleSearchQuantity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req QuantityRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PartNumber == "" {
		jsonErr(w, http.StatusBadRequest, "part_number is required")
		return
	}

	sess := quoteSession(w, r)
	if !sess.SetQuantity(req.PartNumber, req.Quantity) {
		jsonErr(w, http.StatusBadRequest, "unknown part number")
		return
	}
	jsonResp(w, http.StatusOK, sess.Snapshot())
}

type ConditionRequest struct {
	PartNumber string `json:"part_number"`
	Condition  string `json:"condition"`
}

func handleSearchCondition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ConditionRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PartNumber == "" {
		jsonErr(w, http.StatusBadRequest, "part_number is required")
		return
	}

	sess := quoteSession(w, r)
	if !sess.SetCondition(req.PartNumber, req.Condition) {
		jsonErr(w, http.StatusBadRequest, "invalid condition or part number")
		return
	}
	jsonResp(w, http.StatusOK, sess.Snapshot())
}

func handleSearchSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := quoteSession(w, r)
	jsonResp(w, http.StatusOK, sess.Snapshot())
}

func handleSearchQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var meta quote.RequestMeta
	if err := decodeBody(r, &meta); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := quoteSession(w, r)
	req, err := sess.ComposeQuote(meta, appConfig.OpsMailbox)
	if err != nil {
		var ve *validation.ValidationErrors
		if errors.As(err, &ve) {
			jsonErr(w, http.StatusBadRequest, ve.Error())
			return
		}
		jsonErr(w, http.StatusInternalServerError, "failed to compose quote")
		return
	}

	// Best effort: the mailto link is the primary channel, the SMTP copy
	// to the ops mailbox is a convenience.
	if err := sendEmail(appConfig.OpsMailbox, req.Subject, req.Body); err != nil {
		log.Printf("quote %s: ops mailbox send failed: %v", req.Reference, err)
	}

	broadcast("quote", "requested", req.Reference)
	jsonResp(w, http.StatusOK, req)
}

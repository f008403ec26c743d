package quote

import (
	"errors"
	"strings"
	"testing"

	"aeroparts/internal/models"
	"aeroparts/internal/validation"
)

func quoteReadySession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	token := s.BeginSearch()
	groups := []models.PartGroup{
		{
			PartNumber:  "3214-22-1",
			Description: "Fuel pump assembly",
			Items: []models.StockItem{
				{ID: "ST-1", PartNumber: "3214-22-1", Description: "Fuel pump assembly", Quantity: 2, Condition: "oh", SerialNumber: "FP-88121", Location: "Shelf A-03"},
				{ID: "ST-2", PartNumber: "3214-22-1", Description: "Fuel pump assembly", Quantity: 1, Condition: "sv", SerialNumber: "FP-90412", Location: "Shelf A-03"},
			},
			TotalQuantity: 3,
		},
	}
	s.ApplyResults(token, []string{"3214-22-1", "MISSING-1"}, groups, []string{"MISSING-1"})
	return s
}

func validMeta() RequestMeta {
	return RequestMeta{Company: "Acme Air", DeliveryPlace: "EDDF", LeadTime: "5 days"}
}

func TestComposeQuoteRequiresSelection(t *testing.T) {
	s := quoteReadySession(t)
	_, err := s.ComposeQuote(validMeta(), "sales@example.com")
	if err == nil {
		t.Fatal("expected validation error for empty selection")
	}
	var ve *validation.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("error type = %T", err)
	}
	if !strings.Contains(ve.Error(), "selection") {
		t.Errorf("unexpected error: %s", ve.Error())
	}
}

func TestComposeQuoteRequiresMeta(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleItem("ST-1", true)

	_, err := s.ComposeQuote(RequestMeta{}, "sales@example.com")
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ve *validation.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("error type = %T", err)
	}
	for _, field := range []string{"company", "delivery_place", "lead_time"} {
		if !strings.Contains(ve.Error(), field) {
			t.Errorf("missing %s error in %q", field, ve.Error())
		}
	}

	// A failed compose keeps the session intact.
	if got := s.SelectionCount(); got != 1 {
		t.Errorf("selection lost after failed compose: %d", got)
	}
	if s.Snapshot().State != StateResults {
		t.Error("state changed after failed compose")
	}
}

func TestComposeQuoteGroupLine(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleGroup("3214-22-1", true)

	req, err := s.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// One line for the whole group, both serials on it.
	if len(req.Found) != 1 {
		t.Fatalf("expected 1 found line, got %d", len(req.Found))
	}
	line := req.Found[0]
	if line.Quantity != 3 {
		t.Errorf("line quantity = %d, want summed 3", line.Quantity)
	}
	if line.Serials != "FP-88121, FP-90412" {
		t.Errorf("serials = %q", line.Serials)
	}
	if line.Locations != "Shelf A-03" {
		t.Errorf("locations = %q, want deduplicated", line.Locations)
	}
	if line.Condition != "Overhauled/Serviceable" {
		t.Errorf("condition = %q", line.Condition)
	}

	if !strings.HasPrefix(req.Reference, "RFQ-") {
		t.Errorf("reference = %q", req.Reference)
	}
	if !strings.Contains(req.Subject, "Acme Air") {
		t.Errorf("subject = %q", req.Subject)
	}
	if !strings.Contains(req.Body, "3214-22-1 x3") {
		t.Errorf("body missing group line:\n%s", req.Body)
	}
}

func TestComposeQuoteSourcedLine(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleNotFound("MISSING-1", true)
	s.SetQuantity("MISSING-1", 4)
	s.SetCondition("MISSING-1", "oh")

	req, err := s.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if len(req.Found) != 0 {
		t.Errorf("expected no found lines, got %d", len(req.Found))
	}
	if len(req.Sourced) != 1 {
		t.Fatalf("expected 1 sourced line, got %d", len(req.Sourced))
	}
	sl := req.Sourced[0]
	if sl.Quantity != 4 || sl.Condition != "oh" {
		t.Errorf("sourced line = %+v", sl)
	}
	if !strings.Contains(req.Body, "to be sourced") {
		t.Errorf("body missing sourced marker:\n%s", req.Body)
	}
}

func TestComposeQuoteDefaults(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleNotFound("MISSING-1", true)

	req, err := s.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}
	// Unset sourcing quantity defaults to 1, condition to new.
	if req.Sourced[0].Quantity != 1 || req.Sourced[0].Condition != "new" {
		t.Errorf("sourced defaults = %+v", req.Sourced[0])
	}
	if req.Meta.Condition != "new" {
		t.Errorf("meta condition default = %q", req.Meta.Condition)
	}
}

func TestComposeQuoteQuantityOverride(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleGroup("3214-22-1", true)
	s.SetQuantity("3214-22-1", 2)

	req, err := s.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if req.Found[0].Quantity != 2 {
		t.Errorf("quantity = %d, want override 2", req.Found[0].Quantity)
	}
}

func TestComposeQuoteMailto(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleItem("ST-1", true)

	req, err := s.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(req.Mailto, "mailto:sales@example.com?") {
		t.Fatalf("mailto = %q", req.Mailto)
	}
	// Spaces must be %20, never +: mail clients do not decode +.
	if strings.Contains(req.Mailto, "+") {
		t.Errorf("mailto contains '+': %q", req.Mailto)
	}
	if !strings.Contains(req.Mailto, "subject=") || !strings.Contains(req.Mailto, "body=") {
		t.Errorf("mailto missing fields: %q", req.Mailto)
	}
}

func TestComposeQuoteResetsSession(t *testing.T) {
	s := quoteReadySession(t)
	s.ToggleItem("ST-1", true)

	if _, err := s.ComposeQuote(validMeta(), "sales@example.com"); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state after compose = %s, want idle", snap.State)
	}
	if len(snap.Groups) != 0 || len(snap.Selected) != 0 || len(snap.Quantities) != 0 {
		t.Error("session state survived a successful compose")
	}
}

func TestReferenceUniqueness(t *testing.T) {
	a := quoteReadySession(t)
	b := quoteReadySession(t)
	a.ToggleItem("ST-1", true)
	b.ToggleItem("ST-1", true)

	ra, err := a.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.ComposeQuote(validMeta(), "sales@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if ra.Reference == rb.Reference {
		t.Errorf("two quotes share reference %s", ra.Reference)
	}
}

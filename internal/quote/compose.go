package quote

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"aeroparts/internal/models"
	"aeroparts/internal/validation"
)

// RequestMeta is the requester-supplied portion of a quote request.
type RequestMeta struct {
	Company       string `json:"company"`
	DeliveryPlace string `json:"delivery_place"`
	LeadTime      string `json:"lead_time"`
	Condition     string `json:"condition,omitempty"` // preferred condition for the in-stock side
	Comments      string `json:"comments,omitempty"`
}

// FoundLine is one in-stock line of a composed quote. A line covers a
// whole part-number group; serialized units are listed on the line, not
// split into lines of their own.
type FoundLine struct {
	PartNumber  string `json:"part_number"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Condition   string `json:"condition"`
	Serials     string `json:"serials,omitempty"`
	Locations   string `json:"locations,omitempty"`
}

// SourcedLine is one line for a part absent from stock, to be sourced
// from the supplier network.
type SourcedLine struct {
	PartNumber string `json:"part_number"`
	Quantity   int    `json:"quantity"`
	Condition  string `json:"condition"`
}

// Request is the composed quote artifact. It is built once per send
// action, handed off, and discarded; nothing here is persisted.
type Request struct {
	Reference string        `json:"reference"`
	CreatedAt time.Time     `json:"created_at"`
	Found     []FoundLine   `json:"found"`
	Sourced   []SourcedLine `json:"sourced"`
	Meta      RequestMeta   `json:"meta"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Mailto    string        `json:"mailto"`
}

// NewReference generates a human-readable quote reference: timestamp
// plus a short random component. It disambiguates concurrent requests
// but is not a primary key.
func NewReference(now time.Time) string {
	return "RFQ-" + now.UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// ComposeQuote validates the current selection and requester metadata,
// builds the outgoing quote request and resets the session on success.
// The returned error is a *validation.ValidationErrors when input is
// the problem.
func (s *Session) ComposeQuote(meta RequestMeta, recipient string) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "company", meta.Company)
	validation.RequireField(ve, "delivery_place", meta.DeliveryPlace)
	validation.RequireField(ve, "lead_time", meta.LeadTime)
	if meta.Condition == "" {
		meta.Condition = models.ConditionNew
	}
	validation.ValidateEnum(ve, "condition", meta.Condition, models.Conditions)
	if len(s.itemSel)+len(s.notFoundSel) == 0 {
		ve.Add("selection", "select at least one part before requesting a quote")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	now := time.Now()
	req := &Request{
		Reference: NewReference(now),
		CreatedAt: now,
		Meta:      meta,
	}

	// One line per part-number group, display order.
	for i := range s.groups {
		g := &s.groups[i]
		var members []models.StockItem
		memberQty := 0
		for _, it := range g.Items {
			if s.itemSel[it.ID] {
				members = append(members, it)
				memberQty += it.Quantity
			}
		}
		if len(members) == 0 {
			continue
		}
		qty := memberQty
		if o, ok := s.qtyOverride[g.PartNumber]; ok {
			qty = o
		}
		line := FoundLine{
			PartNumber:  g.PartNumber,
			Description: g.Description,
			Quantity:    qty,
			Condition:   joinConditions(members),
		}
		var serials, locations []string
		for _, it := range members {
			if it.SerialNumber != "" {
				serials = append(serials, it.SerialNumber)
			}
			if it.Location != "" {
				locations = append(locations, it.Location)
			}
		}
		line.Serials = strings.Join(serials, ", ")
		line.Locations = strings.Join(dedupe(locations), ", ")
		req.Found = append(req.Found, line)
	}

	for _, pn := range s.notFound {
		if !s.notFoundSel[pn] {
			continue
		}
		qty := 1
		if o, ok := s.qtyOverride[pn]; ok {
			qty = o
		}
		cond := s.condPref[pn]
		if cond == "" {
			cond = models.ConditionNew
		}
		req.Sourced = append(req.Sourced, SourcedLine{PartNumber: pn, Quantity: qty, Condition: cond})
	}

	req.Subject = fmt.Sprintf("Quote Request %s — %s", req.Reference, meta.Company)
	req.Body = renderBody(req)
	req.Mailto = mailtoURL(recipient, req.Subject, req.Body)

	// QuoteSent returns the session to idle: results, selections,
	// overrides and preferences are all cleared.
	s.resetLocked()
	s.state = StateIdle

	return req, nil
}

func joinConditions(members []models.StockItem) string {
	var labels []string
	for _, it := range members {
		l := models.ConditionLabels[it.Condition]
		if l == "" {
			l = it.Condition
		}
		labels = append(labels, l)
	}
	return strings.Join(dedupe(labels), "/")
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func renderBody(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quote request %s\nSubmitted: %s\n\n", req.Reference, req.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))

	if len(req.Found) > 0 {
		b.WriteString("In stock:\n")
		for _, l := range req.Found {
			fmt.Fprintf(&b, "  - %s x%d (%s)", l.PartNumber, l.Quantity, l.Condition)
			if l.Description != "" {
				fmt.Fprintf(&b, " — %s", l.Description)
			}
			if l.Serials != "" {
				fmt.Fprintf(&b, " [S/N %s]", l.Serials)
			}
			if l.Locations != "" {
				fmt.Fprintf(&b, " @ %s", l.Locations)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(req.Sourced) > 0 {
		b.WriteString("Source externally:\n")
		for _, l := range req.Sourced {
			label := models.ConditionLabels[l.Condition]
			if label == "" {
				label = l.Condition
			}
			fmt.Fprintf(&b, "  - %s x%d (%s, to be sourced)\n", l.PartNumber, l.Quantity, label)
		}
		b.WriteString("\n")
	}

	prefLabel := models.ConditionLabels[req.Meta.Condition]
	if prefLabel == "" {
		prefLabel = req.Meta.Condition
	}
	fmt.Fprintf(&b, "Company: %s\n", req.Meta.Company)
	fmt.Fprintf(&b, "Delivery: %s\n", req.Meta.DeliveryPlace)
	fmt.Fprintf(&b, "Preferred condition: %s\n", prefLabel)
	fmt.Fprintf(&b, "Expected lead time: %s\n", req.Meta.LeadTime)
	if req.Meta.Comments != "" {
		fmt.Fprintf(&b, "Comments: %s\n", req.Meta.Comments)
	}
	return b.String()
}

// mailtoURL percent-encodes a mailto payload. url.Values encodes spaces
// as "+", which mail clients do not decode, so swap in %20.
func mailtoURL(recipient, subject, body string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	return "mailto:" + recipient + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

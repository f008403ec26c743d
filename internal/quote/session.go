package quote

import (
	"sync"
	"time"

	"aeroparts/internal/models"
)

// State names for a quote session.
const (
	StateIdle      = "idle"
	StateSearching = "searching"
	StateResults   = "results"
	StateError     = "error"
)

// Session owns all mutable state of one visitor's search-and-quote
// workflow: the current result set, selection flags, quantity overrides
// and condition preferences. Handlers interleave on it, so every
// operation takes the session lock; there is no other shared state.
type Session struct {
	mu sync.Mutex

	state     string
	searchSeq uint64
	errMsg    string

	terms    []string
	groups   []models.PartGroup
	notFound []string

	// Found-item and not-found selections are independent maps and are
	// only merged when a quote is composed.
	itemSel     map[string]bool
	notFoundSel map[string]bool

	// Keyed by part number: for found parts the override is shared by
	// every unit in the group, for not-found parts it is the requested
	// sourcing quantity.
	qtyOverride map[string]int
	condPref    map[string]string

	lastActive time.Time
}

// NewSession returns an idle session with empty state.
func NewSession() *Session {
	s := &Session{state: StateIdle, lastActive: time.Now()}
	s.resetLocked()
	return s
}

// resetLocked clears results and all selection-related state. Callers
// hold s.mu.
func (s *Session) resetLocked() {
	s.terms = nil
	s.groups = nil
	s.notFound = nil
	s.itemSel = make(map[string]bool)
	s.notFoundSel = make(map[string]bool)
	s.qtyOverride = make(map[string]int)
	s.condPref = make(map[string]string)
	s.errMsg = ""
}

// BeginSearch marks the session as searching and returns a token the
// caller must present when applying results. Issuing a new token
// supersedes any search still in flight: a stale token's results are
// discarded rather than applied.
func (s *Session) BeginSearch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchSeq++
	s.state = StateSearching
	s.lastActive = time.Now()
	return s.searchSeq
}

// ApplyResults commits a search outcome in a single transition: prior
// results and every selection map are replaced atomically, so no stale
// selection is ever observable against the new result set. Returns
// false if the token has been superseded.
func (s *Session) ApplyResults(token uint64, terms []string, groups []models.PartGroup, notFound []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.searchSeq {
		return false
	}
	s.resetLocked()
	s.terms = terms
	s.groups = groups
	s.notFound = notFound
	s.state = StateResults
	s.lastActive = time.Now()
	return true
}

// FailSearch records a query failure: prior results are cleared, the
// error message is retained for display, and nothing is retried.
// Returns false if the token has been superseded.
func (s *Session) FailSearch(token uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.searchSeq {
		return false
	}
	s.resetLocked()
	s.errMsg = msg
	s.state = StateError
	s.lastActive = time.Now()
	return true
}

func (s *Session) groupByPN(pn string) *models.PartGroup {
	for i := range s.groups {
		if s.groups[i].PartNumber == pn {
			return &s.groups[i]
		}
	}
	return nil
}

func (s *Session) hasItem(id string) bool {
	for i := range s.groups {
		for _, it := range s.groups[i].Items {
			if it.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *Session) hasNotFound(pn string) bool {
	for _, n := range s.notFound {
		if n == pn {
			return true
		}
	}
	return false
}

// ToggleItem sets or clears the selection flag for one stock unit.
func (s *Session) ToggleItem(id string, checked bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasItem(id) {
		return false
	}
	if checked {
		s.itemSel[id] = true
	} else {
		delete(s.itemSel, id)
	}
	s.lastActive = time.Now()
	return true
}

// ToggleGroup applies one selection flag to every unit in a part group.
func (s *Session) ToggleGroup(pn string, checked bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groupByPN(pn)
	if g == nil {
		return false
	}
	for _, it := range g.Items {
		if checked {
			s.itemSel[it.ID] = true
		} else {
			delete(s.itemSel, it.ID)
		}
	}
	s.lastActive = time.Now()
	return true
}

// ToggleNotFound sets or clears the selection flag for a not-found part.
func (s *Session) ToggleNotFound(pn string, checked bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNotFound(pn) {
		return false
	}
	if checked {
		s.notFoundSel[pn] = true
	} else {
		delete(s.notFoundSel, pn)
	}
	s.lastActive = time.Now()
	return true
}

// allSelectedLocked reports whether every displayed found item and
// every displayed not-found part is currently selected.
func (s *Session) allSelectedLocked() bool {
	for i := range s.groups {
		for _, it := range s.groups[i].Items {
			if !s.itemSel[it.ID] {
				return false
			}
		}
	}
	for _, pn := range s.notFound {
		if !s.notFoundSel[pn] {
			return false
		}
	}
	return true
}

// ToggleAll is the single select-all action: if everything displayed is
// already selected it clears both selection maps, otherwise it selects
// every found item and every not-found part. Never a partial state.
func (s *Session) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allSelectedLocked() {
		s.itemSel = make(map[string]bool)
		s.notFoundSel = make(map[string]bool)
	} else {
		for i := range s.groups {
			for _, it := range s.groups[i].Items {
				s.itemSel[it.ID] = true
			}
		}
		for _, pn := range s.notFound {
			s.notFoundSel[pn] = true
		}
	}
	s.lastActive = time.Now()
}

// SetQuantity records a requested quantity for a part number. The
// quantity is forced positive (non-positive input falls back to 1) and,
// for found groups, clamped to the group's total available quantity.
// The clamp is against the group total, not any single unit, matching
// how one email line is emitted per group. Not-found parts are sourced
// externally and carry no clamp.
func (s *Session) SetQuantity(pn string, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty < 1 {
		qty = 1
	}
	if g := s.groupByPN(pn); g != nil {
		if qty > g.TotalQuantity {
			qty = g.TotalQuantity
		}
		s.qtyOverride[pn] = qty
		s.lastActive = time.Now()
		return true
	}
	if s.hasNotFound(pn) {
		s.qtyOverride[pn] = qty
		s.lastActive = time.Now()
		return true
	}
	return false
}

// SetCondition records the preferred condition for a not-found part.
// Unset parts default to "new" at composition time.
func (s *Session) SetCondition(pn, condition string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasNotFound(pn) || !models.ValidCondition(condition) {
		return false
	}
	s.condPref[pn] = condition
	s.lastActive = time.Now()
	return true
}

// Snapshot is a copy of the session's displayable state.
type Snapshot struct {
	State       string             `json:"state"`
	Error       string             `json:"error,omitempty"`
	Terms       []string           `json:"terms"`
	Groups      []models.PartGroup `json:"groups"`
	NotFound    []string           `json:"not_found"`
	Selected    []string           `json:"selected_items"`
	SelectedNF  []string           `json:"selected_not_found"`
	Quantities  map[string]int     `json:"quantities"`
	Conditions  map[string]string  `json:"conditions"`
	AllSelected bool               `json:"all_selected"`
}

// Snapshot returns the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:      s.state,
		Error:      s.errMsg,
		Terms:      append([]string(nil), s.terms...),
		Groups:     append([]models.PartGroup(nil), s.groups...),
		NotFound:   append([]string(nil), s.notFound...),
		Selected:   make([]string, 0, len(s.itemSel)),
		SelectedNF: make([]string, 0, len(s.notFoundSel)),
		Quantities: make(map[string]int, len(s.qtyOverride)),
		Conditions: make(map[string]string, len(s.condPref)),
	}
	if snap.Groups == nil {
		snap.Groups = []models.PartGroup{}
	}
	if snap.NotFound == nil {
		snap.NotFound = []string{}
	}
	if snap.Terms == nil {
		snap.Terms = []string{}
	}
	// Preserve display order rather than map order.
	for i := range s.groups {
		for _, it := range s.groups[i].Items {
			if s.itemSel[it.ID] {
				snap.Selected = append(snap.Selected, it.ID)
			}
		}
	}
	for _, pn := range s.notFound {
		if s.notFoundSel[pn] {
			snap.SelectedNF = append(snap.SelectedNF, pn)
		}
	}
	for k, v := range s.qtyOverride {
		snap.Quantities[k] = v
	}
	for k, v := range s.condPref {
		snap.Conditions[k] = v
	}
	snap.AllSelected = (len(s.groups) > 0 || len(s.notFound) > 0) && s.allSelectedLocked()
	return snap
}

// SelectionCount returns how many found items plus not-found parts are
// currently selected.
func (s *Session) SelectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.itemSel) + len(s.notFoundSel)
}

// LastActive reports the session's most recent mutation time.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

package validation

// Common enum values - these MUST match DB CHECK constraints in db.go.
var (
	ValidInquiryKinds    = []string{"contact", "aog"}
	ValidInquiryStatuses = []string{"new", "in_progress", "answered", "closed"}
	ValidSearchModes     = []string{"single", "bulk"}
)

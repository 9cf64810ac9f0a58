package models

// Severity classifies a validation issue. Errors block persistence; warnings
// are surfaced for review but never block progress.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one tagged validation finding. Code is stable and safe to
// assert on; Message is the user-facing rendering.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// ValidationResult accumulates the findings of one validation pass over a
// CanonicalRecord. Transient: recomputed on demand, never persisted.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// NewValidationResult returns an empty result with non-nil slices.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Errors:   make([]ValidationIssue, 0),
		Warnings: make([]ValidationIssue, 0),
	}
}

// AddError records an error-severity issue.
func (r *ValidationResult) AddError(code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{Severity: SeverityError, Code: code, Message: message})
}

// AddWarning records a warning-severity issue.
func (r *ValidationResult) AddWarning(code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Severity: SeverityWarning, Code: code, Message: message})
}

// IsValid reports whether the record can be persisted.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// HasError reports whether an issue with the given code was recorded as an
// error.
func (r *ValidationResult) HasError(code string) bool {
	for _, issue := range r.Errors {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// HasWarning reports whether an issue with the given code was recorded as a
// warning.
func (r *ValidationResult) HasWarning(code string) bool {
	for _, issue := range r.Warnings {
		if issue.Code == code {
			return true
		}
	}
	return false
}

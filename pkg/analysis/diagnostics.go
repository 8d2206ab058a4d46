package analysis

import "fmt"

// DiagnosticKind classifies a recorded analysis problem. No kind is fatal;
// the run always completes with partial results plus diagnostics.
type DiagnosticKind string

const (
	// DiagNotFound marks a requested function or module absent from the
	// current analysis.
	DiagNotFound DiagnosticKind = "not_found"

	// DiagMalformedInput marks a file or construct the parser could not
	// fully understand. The unit degrades to a minimal result.
	DiagMalformedInput DiagnosticKind = "malformed_input"

	// DiagUnresolvedReference marks a call or include target the resolver
	// could not map to a known definition.
	DiagUnresolvedReference DiagnosticKind = "unresolved_reference"

	// DiagIntegrityWarning marks structural findings in produced graphs,
	// like orphan nodes or cycles.
	DiagIntegrityWarning DiagnosticKind = "integrity_warning"
)

// Diagnostic is one recorded problem, tied to the file or subject it
// concerns.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path,omitempty"`
	Subject string         `json:"subject,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	where := d.Path
	if where == "" {
		where = d.Subject
	}
	if where == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, where, d.Message)
}

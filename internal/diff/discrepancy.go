package diff

// Kind classifies one discrepancy between original and reconstruction.
type Kind string

const (
	MissingElement     Kind = "missing_element"
	ExtraElement       Kind = "extra_element"
	MissingAttribute   Kind = "missing_attribute"
	ExtraAttribute     Kind = "extra_attribute"
	IncorrectAttribute Kind = "incorrect_attribute"
	ValueMismatch      Kind = "value_mismatch"
)

// Severity ranks how much a discrepancy matters for document validity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Discrepancy is one located difference. Location points into the original
// tree when the construct exists there; Extra* kinds point into the
// reconstructed tree. Records are immutable once emitted.
type Discrepancy struct {
	Kind        Kind     `json:"kind"`
	Location    string   `json:"location"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

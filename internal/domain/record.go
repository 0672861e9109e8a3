package domain

// Severity represents the severity assigned to a classified console line
type Severity string

const (
	SeverityDefault Severity = "Default"
	SeverityInfo    Severity = "Info"
	SeverityDebug   Severity = "Debug"
	SeverityWarning Severity = "Warning"
	SeverityError   Severity = "Error"
	SeverityFault   Severity = "Fault"
)

// Priority returns the priority of a severity (higher = more severe)
func (s Severity) Priority() int {
	switch s {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 1
	case SeverityDefault:
		return 2
	case SeverityWarning:
		return 3
	case SeverityError:
		return 4
	case SeverityFault:
		return 5
	default:
		return 2
	}
}

// Record is a console line attributed to the target application with a
// reliable structured match.
type Record struct {
	Category string
	Message  string
	Severity Severity
}

// Verdict is the classification result for one raw line.
type Verdict int

const (
	// VerdictDrop means the line does not belong to the target app (or is
	// suppressed noise) and produces no output.
	VerdictDrop Verdict = iota
	// VerdictMatched means the line matched a structured layout and
	// carries a Record.
	VerdictMatched
	// VerdictPassthrough means the line was attributed by loose heuristic
	// only and is emitted largely as-is.
	VerdictPassthrough
)

// Outcome is the full result of classifying one raw line.
type Outcome struct {
	Verdict Verdict
	Record  Record // valid when Verdict == VerdictMatched
	Text    string // valid when Verdict == VerdictPassthrough
}

// Dropped returns an Outcome producing no output.
func Dropped() Outcome {
	return Outcome{Verdict: VerdictDrop}
}

// MatchedOutcome wraps a Record.
func MatchedOutcome(r Record) Outcome {
	return Outcome{Verdict: VerdictMatched, Record: r}
}

// PassthroughOutcome wraps loosely attributed text.
func PassthroughOutcome(text string) Outcome {
	return Outcome{Verdict: VerdictPassthrough, Text: text}
}

package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/vburojevic/acw/internal/domain"
)

// Separator is the divider emitted after each classified block.
const Separator = "────────────────────────────────────────"

// deviceGlyph prefixes passthrough lines on physical targets.
const deviceGlyph = "📱"

// stderrAllowList holds known-harmless diagnostic substrings from the
// log-capture subprocess. Matching stderr lines are suppressed entirely.
var stderrAllowList = []string{
	"getpwuid_r did not find a match",
	"requested but did not find an extension point",
}

// Glyph returns the display glyph for a severity.
func Glyph(s domain.Severity) string {
	switch s {
	case domain.SeverityInfo:
		return "ℹ️"
	case domain.SeverityDebug:
		return "🪲"
	case domain.SeverityWarning:
		return "⚠️"
	case domain.SeverityError:
		return "❌"
	case domain.SeverityFault:
		return "💥"
	default:
		return "📝"
	}
}

// Formatter renders classification outcomes into display lines for the
// sink. One Formatter serves one watch session.
type Formatter struct {
	kind domain.TargetKind
}

// NewFormatter creates a Formatter for the given target kind.
func NewFormatter(kind domain.TargetKind) *Formatter {
	return &Formatter{kind: kind}
}

// Format renders one outcome into zero or more display lines.
//
// Matched records become a three-line block (glyph + category header,
// message, separator). Simulator passthrough is a bare line; device
// passthrough gets a device glyph and a trailing separator. The asymmetry
// is intentional and kept for compatibility with the existing viewer.
func (f *Formatter) Format(outcome domain.Outcome) []string {
	switch outcome.Verdict {
	case domain.VerdictMatched:
		r := outcome.Record
		return []string{
			fmt.Sprintf("%s [%s]", Glyph(r.Severity), r.Category),
			r.Message,
			Separator,
		}
	case domain.VerdictPassthrough:
		if f.kind == domain.TargetPhysicalDevice {
			return []string{
				fmt.Sprintf("%s %s", deviceGlyph, outcome.Text),
				Separator,
			}
		}
		return []string{outcome.Text}
	default:
		return nil
	}
}

// Banner renders the session-start banner emitted before any classified
// output.
func (f *Formatter) Banner(target domain.TargetIdentity, app string, now time.Time) []string {
	return []string{
		fmt.Sprintf("▶ %s @ %s — started %s", app, target.Name, now.Format("2006-01-02 15:04:05")),
		Separator,
	}
}

// StderrLines renders a subprocess stderr chunk into error-tagged display
// lines, suppressing known-harmless diagnostics.
func (f *Formatter) StderrLines(chunk string) []string {
	var out []string
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isHarmlessStderr(line) {
			continue
		}
		out = append(out, fmt.Sprintf("%s [stderr] %s", Glyph(domain.SeverityError), line))
	}
	return out
}

// ErrorLine renders an operational error (e.g. launch failure) as a
// single error-tagged display line.
func (f *Formatter) ErrorLine(msg string) string {
	return fmt.Sprintf("%s %s", Glyph(domain.SeverityError), msg)
}

// ExitStatusLine renders the warning status line for an abnormal
// subprocess exit.
func (f *Formatter) ExitStatusLine(code int) string {
	return fmt.Sprintf("%s log stream exited with code %d", Glyph(domain.SeverityWarning), code)
}

func isHarmlessStderr(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range stderrAllowList {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

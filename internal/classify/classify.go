package classify

import (
	"regexp"
	"strings"

	"github.com/vburojevic/acw/internal/domain"
)

// systemNoiseMarkers are benign system lines that are always suppressed,
// regardless of other content. These cover vendor agent/executor chatter
// and dylib-load diagnostics that mention the app without originating
// from it.
var systemNoiseMarkers = []string{
	"DTServiceHub",
	"testmanagerd",
	"com.apple.dt.instruments",
	"libMobileGestalt",
	"dyld[",
}

// ignorableDiagnostics are lines that contain the dylib token but are
// known tooling diagnostics, not app output.
var ignorableDiagnostics = []string{
	"getpwuid_r did not find a match",
	"failed to retrieve password",
}

// Keyword sets for severity inference over the lowercased message body.
// Checked in order: error beats warning beats debug.
var (
	errorKeywords   = []string{"fail", "error", "exception", "crash", "invalid", "unable", "not found"}
	warningKeywords = []string{"warn", "deprecat", "unresponsive", "elevated", "excessive", "timeout", "slow"}
	debugKeywords   = []string{"debug", "trace", "verbose"}
)

// devicePrefixPattern matches the timestamp/subsystem prefix that
// physical-device console lines carry, e.g.
// "2024-05-01 12:30:45.123456+0200 SpringBoard ".
var devicePrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{6}[+-]\d{4}\s+\S+\s+`)

// Classifier decides whether a raw console line belongs to the target
// application and, if so, extracts a category, message, and severity.
// Patterns are compiled once per watch session from the filter key.
type Classifier struct {
	key  domain.FilterKey
	kind domain.TargetKind

	structured *regexp.Regexp // "(<base>.debug.dylib) [subsystem:category] message"
	device     *regexp.Regexp // "<base>[pid] ... [category] message"
	loose      *regexp.Regexp // "(loaded|from|by) ...<base>.debug.dylib"
	tokenLower string
}

// New builds a Classifier for one target app on one target kind.
func New(key domain.FilterKey, kind domain.TargetKind) *Classifier {
	base := regexp.QuoteMeta(key.BaseName)
	return &Classifier{
		key:        key,
		kind:       kind,
		structured: regexp.MustCompile(`\(` + base + `\.debug\.dylib\)\s*\[([^\]]+)\]\s*(.*)`),
		device:     regexp.MustCompile(base + `\[\d+\][^\[]*\[([^\]]+)\]\s*(.*)`),
		loose:      regexp.MustCompile(`(?i)(loaded|from|by)\s.*` + base + `\.debug\.dylib`),
		tokenLower: strings.ToLower(key.DylibToken),
	}
}

// Classify runs the ordered matching rules over one raw line.
// First match wins: noise suppression, structured match, device secondary
// match, loose dylib attribution, drop.
func (c *Classifier) Classify(line string) domain.Outcome {
	if strings.TrimSpace(line) == "" {
		return domain.Dropped()
	}

	for _, marker := range systemNoiseMarkers {
		if strings.Contains(line, marker) {
			return domain.Dropped()
		}
	}

	if m := c.structured.FindStringSubmatch(line); m != nil {
		return domain.MatchedOutcome(buildRecord(m[1], m[2]))
	}
	if c.kind == domain.TargetPhysicalDevice {
		if m := c.device.FindStringSubmatch(line); m != nil {
			return domain.MatchedOutcome(buildRecord(m[1], m[2]))
		}
	}

	lower := strings.ToLower(line)
	if strings.Contains(lower, c.tokenLower) {
		for _, marker := range ignorableDiagnostics {
			if strings.Contains(lower, marker) {
				return domain.Dropped()
			}
		}
		return domain.PassthroughOutcome(c.passthroughText(line))
	}
	if c.loose.MatchString(line) {
		return domain.PassthroughOutcome(c.passthroughText(line))
	}

	return domain.Dropped()
}

// passthroughText strips the device timestamp/subsystem prefix on
// physical targets; simulator lines are passed through untouched.
func (c *Classifier) passthroughText(line string) string {
	if c.kind == domain.TargetPhysicalDevice {
		return stripDevicePrefix(line)
	}
	return line
}

func stripDevicePrefix(line string) string {
	return devicePrefixPattern.ReplaceAllString(line, "")
}

// buildRecord extracts category and message from a structured match and
// assigns severity.
func buildRecord(tag, message string) domain.Record {
	category := "Log"
	if idx := strings.LastIndex(tag, ":"); idx >= 0 {
		category = tag[idx+1:]
	}
	return domain.Record{
		Category: category,
		Message:  message,
		Severity: inferSeverity(category, message),
	}
}

// inferSeverity applies keyword inference over the message body, then the
// category-label override. The override always wins.
func inferSeverity(category, message string) domain.Severity {
	severity := domain.SeverityInfo

	lowerMsg := strings.ToLower(message)
	switch {
	case containsAny(lowerMsg, errorKeywords):
		severity = domain.SeverityError
	case containsAny(lowerMsg, warningKeywords):
		severity = domain.SeverityWarning
	case containsAny(lowerMsg, debugKeywords):
		severity = domain.SeverityDebug
	}

	lowerCat := strings.ToLower(category)
	switch {
	case strings.Contains(lowerCat, "error"):
		severity = domain.SeverityError
	case strings.Contains(lowerCat, "warn"):
		severity = domain.SeverityWarning
	case strings.Contains(lowerCat, "debug"):
		severity = domain.SeverityDebug
	}

	return severity
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

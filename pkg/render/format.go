// Package render turns chat messages into terminal text: the user bubble, the
// assistant's thinking pill and thought process panel, the answer and the
// token accounting line.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/playground/pkg/chat"
)

const (
	activityLimit  = 72
	quickThinking  = 700 * time.Millisecond
	defaultWorking = "working"
)

// FormatThinkingDuration formats how long the model thought. Durations below
// 700ms, including unset ones, read "a few seconds".
func FormatThinkingDuration(d time.Duration) string {
	if d < quickThinking {
		return "a few seconds"
	}

	seconds := int64(math.Round(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10) + "s"
}

// CurrentActivity returns the latest non-blank line of a thinking trace,
// cut to 72 characters.
func CurrentActivity(thinking string) string {
	latest := ""
	for _, line := range strings.Split(thinking, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			latest = line
		}
	}

	if latest == "" {
		return defaultWorking
	}

	r := []rune(latest)
	if len(r) <= activityLimit {
		return latest
	}
	return string(r[:activityLimit]) + "..."
}

var errorPrefixes = []string{"Parse error:", "Validation failed:", "Execution error:", "Error:"}

// IsThinkingErrorLine reports whether a thinking line records a failure.
func IsThinkingErrorLine(line string) bool {
	for _, p := range errorPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// LineKind classifies a thinking line for styling.
type LineKind int

const (
	LinePlain LineKind = iota
	LineSQL
	LineError
)

// ThinkingLine is one non-blank line of a thinking trace.
type ThinkingLine struct {
	Text string
	Kind LineKind
}

// ThinkingLines splits a trace into classified non-blank lines.
func ThinkingLines(thinking string) []ThinkingLine {
	var out []ThinkingLine
	for _, line := range strings.Split(thinking, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		kind := LinePlain
		switch {
		case IsThinkingErrorLine(line):
			kind = LineError
		case strings.HasPrefix(line, "SQL:"):
			kind = LineSQL
		}
		out = append(out, ThinkingLine{Text: line, Kind: kind})
	}
	return out
}

// FormatCostUSD formats a dollar amount with precision that follows its
// magnitude.
func FormatCostUSD(usd float64) string {
	switch {
	case usd == 0:
		return "$0.00"
	case usd < 0.000001:
		return "<$0.000001"
	case usd < 0.0001:
		return fmt.Sprintf("$%.6f", usd)
	case usd < 0.01:
		return fmt.Sprintf("$%.4f", usd)
	default:
		return fmt.Sprintf("$%.3f", usd)
	}
}

// TokenMeta returns the labelled segments of a reply's metadata line in
// display order. Segments whose data is missing are left out.
func TokenMeta(md chat.Metadata) []string {
	if md == nil {
		return nil
	}

	var out []string
	if m, ok := md.Model(); ok {
		provider := m.Provider
		if provider == "" {
			provider = "-"
		}
		seg := "Model: " + provider
		if m.Name != "" {
			seg += "/" + m.Name
		}
		out = append(out, seg)
	}

	if stage := md.Stage(); stage != "" {
		out = append(out, "Stage: "+stage)
	}

	if u, ok := md.Usage(); ok {
		if u.InputTokens != nil {
			out = append(out, "Input: "+strconv.FormatInt(*u.InputTokens, 10))
		}
		if u.OutputTokens != nil {
			out = append(out, "Output: "+strconv.FormatInt(*u.OutputTokens, 10))
		}
		if u.TotalTokens != nil {
			out = append(out, "Total: "+strconv.FormatInt(*u.TotalTokens, 10))
		}
	}

	if c, ok := md.Cost(); ok && c.TotalUSD != nil {
		out = append(out, "Cost: "+FormatCostUSD(*c.TotalUSD))
	}

	return out
}

// TokenMetaLine joins TokenMeta segments.
func TokenMetaLine(md chat.Metadata) string {
	return strings.Join(TokenMeta(md), " · ")
}

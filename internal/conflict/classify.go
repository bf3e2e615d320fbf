// Package conflict turns the conflict markers git leaves in a file into a
// structured analysis: a marker count, a complexity tier, a guess at what
// kind of code the conflict touches, and the conflict text itself.
//
// Classification is a pure function of file content so it can be exercised
// with literal fixtures. Only the ClassifyFile helper touches a filesystem.
package conflict

import (
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// Type is the kind of code a conflict appears to touch.
type Type string

const (
	TypeImport     Type = "import_conflict"
	TypeFunction   Type = "function_conflict"
	TypeClass      Type = "class_conflict"
	TypeWhitespace Type = "whitespace_conflict"
	TypeContent    Type = "content_conflict"
	TypeUnknown    Type = "unknown"
)

// Complexity is a coarse tier derived from the marker count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityUnknown  Complexity = "unknown"
)

// Marker count thresholds. One region has three marker lines.
const (
	simpleMaxMarkers   = 2
	moderateMaxMarkers = 6
)

const (
	startMarker     = "<<<<<<< "
	headStartMarker = "<<<<<<< HEAD"
	separatorMarker = "======="
	endMarker       = ">>>>>>> "

	// typeWindow is how many lines either side of the head marker are
	// searched for keywords.
	typeWindow = 5
	// sampleWindow is how many lines either side of the head marker are
	// used as the sample when no complete block exists.
	sampleWindow = 3
)

// Keyword rules in priority order; the first match wins.
var keywordRules = []struct {
	pattern *regexp.Regexp
	typ     Type
}{
	{regexp.MustCompile(`\b(import|include|require)\b`), TypeImport},
	{regexp.MustCompile(`\b(function|def|method)\b`), TypeFunction},
	{regexp.MustCompile(`\b(class|struct|interface)\b`), TypeClass},
}

// Analysis is the classification of one conflicted file.
type Analysis struct {
	Type        Type
	Complexity  Complexity
	MarkerCount int
	Sample      string
}

// Unknown is the analysis used when a file cannot be read.
func Unknown() Analysis {
	return Analysis{Type: TypeUnknown, Complexity: ComplexityUnknown}
}

// Classify analyzes file text containing git conflict markers.
//
// MarkerCount sums start, separator and end marker lines across the whole
// file, so several regions collapse into one score. The type is decided by
// the first "<<<<<<< HEAD" marker only.
func Classify(text string) Analysis {
	lines := splitLines(text)
	head := indexOfHeadMarker(lines)

	count := countMarkers(lines)
	return Analysis{
		Type:        classifyType(lines, head),
		Complexity:  complexityFor(count),
		MarkerCount: count,
		Sample:      extractSample(lines, head),
	}
}

// ClassifyFile reads path from fs and classifies it. Read failures yield
// Unknown rather than an error.
func ClassifyFile(fs afero.Fs, path string) Analysis {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Unknown()
	}
	return Classify(string(data))
}

func countMarkers(lines []string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, startMarker) ||
			line == separatorMarker ||
			strings.HasPrefix(line, endMarker) {
			n++
		}
	}
	return n
}

func complexityFor(count int) Complexity {
	switch {
	case count == 0:
		return ComplexityUnknown
	case count <= simpleMaxMarkers:
		return ComplexitySimple
	case count <= moderateMaxMarkers:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

func indexOfHeadMarker(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, headStartMarker) {
			return i
		}
	}
	return -1
}

func classifyType(lines []string, head int) Type {
	if head < 0 {
		return TypeUnknown
	}

	window := strings.Join(lines[max(0, head-typeWindow):min(len(lines), head+typeWindow+1)], "\n")
	for _, rule := range keywordRules {
		if rule.pattern.MatchString(window) {
			return rule.typ
		}
	}

	before := lines[max(0, head-2)]
	after := lines[min(len(lines)-1, head+2)]
	if isBlank(before) || isBlank(after) {
		return TypeWhitespace
	}
	return TypeContent
}

// extractSample returns every complete start..end block joined by a blank
// line, falling back to a small window around the head marker.
func extractSample(lines []string, head int) string {
	var blocks []string
	blockStart := -1
	for i, line := range lines {
		switch {
		case blockStart < 0 && strings.HasPrefix(line, startMarker):
			blockStart = i
		case blockStart >= 0 && strings.HasPrefix(line, endMarker):
			blocks = append(blocks, strings.Join(lines[blockStart:i+1], "\n"))
			blockStart = -1
		}
	}

	if len(blocks) > 0 {
		return strings.Join(blocks, "\n\n")
	}
	if head < 0 {
		return ""
	}
	return strings.Join(lines[max(0, head-sampleWindow):min(len(lines), head+sampleWindow+1)], "\n")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

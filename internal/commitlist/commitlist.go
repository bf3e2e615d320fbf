// Package commitlist reads and writes the plain-text commit lists exchanged
// between commit history discovery and conflict detection.
//
// Each significant line has the shape
//
//	[- |* ]<7-40 hex chars>[ <message>]
//
// Blank lines, lines starting with '#', and lines of any other shape are
// ignored.
package commitlist

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one commit from a list, in the order it appeared.
type Entry struct {
	Hash    string
	Message string
}

var (
	bulletPattern = regexp.MustCompile(`^[-*]\s+`)
	linePattern   = regexp.MustCompile(`^([0-9a-fA-F]{7,40})\b(?:\s+(.*))?$`)
)

// ParseLine parses a single line. The boolean is false for lines that carry
// no commit.
func ParseLine(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Entry{}, false
	}

	trimmed = bulletPattern.ReplaceAllString(trimmed, "")
	m := linePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Entry{}, false
	}
	return Entry{Hash: m[1], Message: strings.TrimSpace(m[2])}, true
}

// Parse returns the entries of text in input order. Duplicates are kept.
func Parse(text string) []Entry {
	var entries []Entry
	for _, line := range splitLines(text) {
		if e, ok := ParseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// ReadFile reads and parses the commit list at path.
func ReadFile(fs afero.Fs, path string) ([]Entry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// Write renders entries as bullet lines, one per entry, under an optional
// markdown heading.
func Write(w io.Writer, heading string, entries []Entry) error {
	if heading != "" {
		if _, err := fmt.Fprintf(w, "# %s\n\n", heading); err != nil {
			return err
		}
	}
	for _, e := range entries {
		line := "- " + e.Hash
		if e.Message != "" {
			line += " " + e.Message
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// splitLines splits on \n and \r\n.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// Package report accumulates per-commit conflict results and writes them as
// the conflicts.yaml document consumed by downstream tooling.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Moonsong-Labs/crucible/internal/conflict"
)

// FileName is the report's file name inside its commit directory.
const FileName = "conflicts.yaml"

// FileConflict is one unmerged path of a conflicting commit.
type FileConflict struct {
	Path            string              `yaml:"path"`
	ConflictType    conflict.Type       `yaml:"conflict_type"`
	Complexity      conflict.Complexity `yaml:"complexity"`
	ConflictMarkers int                 `yaml:"conflict_markers"`
	SampleConflict  string              `yaml:"sample_conflict,omitempty"`
}

// NewFileConflict builds a FileConflict from a classifier result.
func NewFileConflict(path string, a conflict.Analysis) FileConflict {
	return FileConflict{
		Path:            path,
		ConflictType:    a.Type,
		Complexity:      a.Complexity,
		ConflictMarkers: a.MarkerCount,
		SampleConflict:  a.Sample,
	}
}

// CommitConflict lists the conflicted files of one commit in the order git
// reported them.
type CommitConflict struct {
	Commit string         `yaml:"commit"`
	Files  []FileConflict `yaml:"files"`
}

// Totals counts every simulated commit. Total == Clean + Conflicts.
type Totals struct {
	Total     int `json:"total"`
	Clean     int `json:"clean"`
	Conflicts int `json:"conflicts"`
}

func (t Totals) String() string {
	return fmt.Sprintf("Total: %d, Clean: %d, Conflicts: %d", t.Total, t.Clean, t.Conflicts)
}

// Report holds conflict entries in simulation order. Clean commits only
// contribute to Totals.
type Report struct {
	Entries []CommitConflict
	Totals  Totals
}

// New returns an empty report.
func New() *Report {
	return &Report{}
}

// RecordClean counts a commit that cherry-picked without conflicts.
func (r *Report) RecordClean() {
	r.Totals.Total++
	r.Totals.Clean++
}

// RecordConflict appends an entry for a conflicting commit.
func (r *Report) RecordConflict(commit string, files []FileConflict) {
	r.Totals.Total++
	r.Totals.Conflicts++
	r.Entries = append(r.Entries, CommitConflict{Commit: commit, Files: files})
}

// Marshal renders the report as YAML. The document has a single top-level
// "conflicts" key; strings are double quoted and samples use "|" literal
// blocks whatever whitespace they contain.
func (r *Report) Marshal() ([]byte, error) {
	var samples []string
	entries := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range r.Entries {
		entries.Content = append(entries.Content, commitNode(e, &samples))
	}
	if len(entries.Content) == 0 {
		entries.Style = yaml.FlowStyle
	}

	doc := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{mapping(keyValue("conflicts", entries))},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return spliceSamples(buf.Bytes(), samples), nil
}

// Write marshals the report to path, creating parent directories.
func (r *Report) Write(fs afero.Fs, path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// DefaultPath is <namespace>/<shortHash>/conflicts.yaml.
func DefaultPath(namespace, shortHash string) string {
	return filepath.Join(namespace, shortHash, FileName)
}

func commitNode(e CommitConflict, samples *[]string) *yaml.Node {
	files := &yaml.Node{Kind: yaml.SequenceNode}
	for _, f := range e.Files {
		files.Content = append(files.Content, fileNode(f, samples))
	}
	if len(files.Content) == 0 {
		files.Style = yaml.FlowStyle
	}
	return mapping(
		keyValue("commit", quoted(e.Commit)),
		keyValue("files", files),
	)
}

func fileNode(f FileConflict, samples *[]string) *yaml.Node {
	pairs := [][]*yaml.Node{
		keyValue("path", quoted(f.Path)),
		keyValue("conflict_type", quoted(string(f.ConflictType))),
		keyValue("complexity", quoted(string(f.Complexity))),
		keyValue("conflict_markers", integer(f.ConflictMarkers)),
	}
	if f.SampleConflict != "" {
		pairs = append(pairs, keyValue(sampleKey, placeholder(len(*samples))))
		*samples = append(*samples, f.SampleConflict)
	}
	return mapping(pairs...)
}

func mapping(pairs ...[]*yaml.Node) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range pairs {
		n.Content = append(n.Content, p...)
	}
	return n
}

func keyValue(key string, value *yaml.Node) []*yaml.Node {
	return []*yaml.Node{{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value}
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func placeholder(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: sampleToken + strconv.Itoa(i)}
}

func integer(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

const (
	sampleKey = "sample_conflict"
	// sampleToken stands in for a sample during encoding. yaml.v3 falls back
	// to a quoted scalar for text with trailing whitespace, so samples are
	// spliced in afterwards.
	sampleToken = "crucible-sample-"
)

// spliceSamples replaces each placeholder line with a literal block whose
// lines sit two spaces deeper than the key.
func spliceSamples(data []byte, samples []string) []byte {
	if len(samples) == 0 {
		return data
	}

	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		rest, ok := strings.CutPrefix(trimmed, sampleKey+": "+sampleToken)
		i, err := strconv.Atoi(rest)
		if !ok || err != nil || i < 0 || i >= len(samples) {
			out = append(out, line)
			continue
		}

		indent := line[:len(line)-len(trimmed)]
		out = append(out, indent+sampleKey+": "+blockHeader(samples[i]))
		for _, s := range strings.Split(samples[i], "\n") {
			out = append(out, indent+"  "+s)
		}
	}
	return []byte(strings.Join(out, "\n"))
}

// blockHeader is "|", or "|2" when the first line starts with a space and
// would otherwise be taken as the block's indentation.
func blockHeader(sample string) string {
	if strings.HasPrefix(sample, " ") {
		return "|2"
	}
	return "|"
}

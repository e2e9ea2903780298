package script

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	speakOpen  = "<speak>"
	speakClose = "</speak>"
)

var markTagRe = regexp.MustCompile(`<mark name="([^"]+)"/>`)

// Marker is a named zero-width position annotation embedded in narration
// text. The synthesis engine reports a timestamp for each marker it sees.
type Marker struct {
	Name   string
	Offset int
}

// Document holds the marked text of one chapter script and its markers in
// document order.
type Document struct {
	Text    string
	Markers []Marker
}

// Parse reads marked narration text and extracts its markers. The text must
// be non-empty and marker names must be unique within a document.
func Parse(text string) (*Document, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, speakOpen)
	text = strings.TrimSuffix(text, speakClose)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty script")
	}

	doc := &Document{Text: text}
	seen := make(map[string]bool)

	for _, m := range markTagRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if seen[name] {
			return nil, fmt.Errorf("duplicate marker name %q at offset %d", name, m[0])
		}
		seen[name] = true
		doc.Markers = append(doc.Markers, Marker{Name: name, Offset: m[0]})
	}

	return doc, nil
}

// MarkerNames returns the marker names in document order.
func (d *Document) MarkerNames() []string {
	names := make([]string, len(d.Markers))
	for i, m := range d.Markers {
		names[i] = m.Name
	}
	return names
}

// tokenize splits the document text into alternating plain-text and
// marker-tag tokens. Empty text segments between adjacent tags are dropped.
func (d *Document) tokenize() []string {
	var tokens []string
	last := 0
	for _, m := range markTagRe.FindAllStringIndex(d.Text, -1) {
		if m[0] > last {
			tokens = append(tokens, d.Text[last:m[0]])
		}
		tokens = append(tokens, d.Text[m[0]:m[1]])
		last = m[1]
	}
	if last < len(d.Text) {
		tokens = append(tokens, d.Text[last:])
	}
	return tokens
}

func isMarkerTag(token string) bool {
	loc := markTagRe.FindStringIndex(token)
	return loc != nil && loc[0] == 0 && loc[1] == len(token)
}

// markerName extracts the name from a marker-tag token.
func markerName(token string) string {
	m := markTagRe.FindStringSubmatch(token)
	if m == nil {
		return ""
	}
	return m[1]
}

// Unwrap strips the speak wrapper from a rendered chunk.
func Unwrap(ssml string) string {
	ssml = strings.TrimPrefix(ssml, speakOpen)
	return strings.TrimSuffix(ssml, speakClose)
}

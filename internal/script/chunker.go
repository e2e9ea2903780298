package script

import "fmt"

// Chunk is one speech-engine-sized slice of a marked document, wrapped in a
// speak element and carrying the names of the markers it contains.
type Chunk struct {
	Index   int
	SSML    string
	Markers []string
}

// ChunkingError reports a broken chunking invariant. It signals a
// programming defect, never a bad input file.
type ChunkingError struct {
	Detail string
}

func (e *ChunkingError) Error() string {
	return "chunking invariant violated: " + e.Detail
}

// Split cuts a marked document into chunks whose rendered length stays
// within maxLen, never splitting a marker tag. A single marker-free text
// token longer than the budget is emitted as an over-length chunk on its
// own rather than corrupting a tag.
func Split(doc *Document, maxLen int) ([]Chunk, error) {
	budget := maxLen - len(speakOpen) - len(speakClose)

	if len(doc.Text) <= budget {
		return verify(doc, []Chunk{wrap(0, doc.Text)})
	}

	var chunks []Chunk
	current := ""
	for _, token := range doc.tokenize() {
		if current != "" && len(current)+len(token) > budget {
			chunks = append(chunks, wrap(len(chunks), current))
			current = ""
		}
		current += token
	}
	if current != "" {
		chunks = append(chunks, wrap(len(chunks), current))
	}

	return verify(doc, chunks)
}

func wrap(index int, content string) Chunk {
	c := Chunk{Index: index, SSML: speakOpen + content + speakClose}
	for _, m := range markTagRe.FindAllStringSubmatch(content, -1) {
		c.Markers = append(c.Markers, m[1])
	}
	return c
}

// verify checks the round-trip law and whole-marker placement before the
// chunks are handed to synthesis.
func verify(doc *Document, chunks []Chunk) ([]Chunk, error) {
	joined := ""
	total := 0
	for _, c := range chunks {
		content := Unwrap(c.SSML)
		if content == "" {
			return nil, &ChunkingError{Detail: fmt.Sprintf("chunk %d is empty", c.Index)}
		}
		joined += content
		total += len(c.Markers)
	}

	if joined != doc.Text {
		return nil, &ChunkingError{Detail: "concatenated chunks do not reproduce the document"}
	}
	if total != len(doc.Markers) {
		return nil, &ChunkingError{Detail: fmt.Sprintf(
			"chunks carry %d markers, document has %d", total, len(doc.Markers))}
	}

	return chunks, nil
}

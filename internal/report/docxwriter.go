package report

import (
	"fmt"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// SaveDocx writes the batch summary as a styled docx report, failures in
// bold so they stand out when the document is skimmed.
func (s *Summary) SaveDocx(title, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)
	addStyledRun(doc.AddParagraph(""), time.Now().Format("2006-01-02 15:04"), false, fontSize)
	doc.AddParagraph("")

	tally := fmt.Sprintf("%d succeeded, %d failed", s.Succeeded(), s.Failed())
	addStyledRun(doc.AddParagraph(""), tally, true, 14)

	for _, r := range s.Results {
		p := doc.AddParagraph("")
		addStyledRun(p, Line(r), r.Err != nil, fontSize)
	}

	return doc.SaveTo(outputPath)
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

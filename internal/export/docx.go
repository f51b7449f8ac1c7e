package export

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/broll-flow/internal/segment"
)

const (
	DocxFilename = "storyboard.docx"
	DocxMIME     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	fontName  = "Times New Roman"
	fontSize  = 13
	titleSize = 16
	rangeSize = 14
)

// WriteStoryboardDocx writes a printable storyboard with one block per segment
func WriteStoryboardDocx(title string, segments []segment.Segment, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), title, true, titleSize)
	doc.AddParagraph("")

	for i, s := range segments {
		heading := fmt.Sprintf("%d. %s - %s", i+1, ClockTime(s.Start), ClockTime(s.End))
		addStyledRun(doc.AddParagraph(""), heading, true, rangeSize)
		addStyledRun(doc.AddParagraph(""), s.Text, false, fontSize)

		if len(s.Keywords) > 0 {
			p := doc.AddParagraph("")
			addStyledRun(p, "Keywords: ", true, fontSize)
			addStyledRun(p, strings.Join(s.Keywords, ", "), false, fontSize)
		}
		for _, suggestion := range Suggestions(s.Keywords) {
			addStyledRun(doc.AddParagraph(""), "• "+suggestion, false, fontSize)
		}
		if s.Image != "" {
			p := doc.AddParagraph("")
			addStyledRun(p, "B-roll: ", true, fontSize)
			addStyledRun(p, s.Image, false, fontSize)
		}

		doc.AddParagraph("")
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save document %s: %w", outputPath, err)
	}
	return nil
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

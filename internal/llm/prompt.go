package llm

import (
	"fmt"
	"strings"

	"github.com/melodyhei/handwriten2md/internal/document"
)

const systemPrompt = "You are a professional text-organization assistant. " +
	"You clean up OCR output from handwritten notes and can recognize and " +
	"join different parts of the same article."

const instructionPreamble = `Please organize and join the OCR text recognized from the following note images. The fragments may come from different parts of the same article.
Please:
1. Remove redundant whitespace and line breaks
2. Fix obvious recognition mistakes
3. Join text from different images naturally
4. Keep the original meaning intact
5. If fragments clearly belong to different articles, separate them with a divider

Original text:
`

// BuildPrompt combines every section's payload into one request body,
// each fragment delimited by a marker identifying its source image.
func BuildPrompt(sections []document.Section) string {
	var b strings.Builder
	b.WriteString(instructionPreamble)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n--- from image %s ---\n", s.ID)
		b.WriteString(s.Body)
		b.WriteString("\n")
	}
	b.WriteString("\nOrganized text:")
	return b.String()
}

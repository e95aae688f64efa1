// Package document reads and writes the structured text documents the
// pipeline stages exchange: a title line, then one section per work
// item headed by "## <id>" and closed by a horizontal rule, so a later
// stage can parse the document back into discrete items.
package document

import (
	"fmt"
	"os"

	"github.com/melodyhei/handwriten2md/constants"
)

// Section is one labeled block of an output document.
type Section struct {
	ID   string
	Body string
}

// FormatSection renders one section in the on-disk layout.
func FormatSection(id, body string) string {
	return fmt.Sprintf("%s%s\n\n%s\n\n%s\n\n", constants.SectionPrefix, id, body, constants.SectionRule)
}

// Appender appends sections to an output document, writing the title
// header first when the document does not exist yet. It never
// truncates pre-existing content.
type Appender struct {
	path  string
	title string
}

func NewAppender(path, title string) *Appender {
	return &Appender{path: path, title: title}
}

// Path returns the location of the output document.
func (a *Appender) Path() string {
	return a.path
}

// Append writes text followed by a newline to the document in
// append-only mode. The file handle is closed on every exit path.
func (a *Appender) Append(text string) error {
	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output %s: %w", a.path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat output %s: %w", a.path, err)
	}
	if st.Size() == 0 {
		if _, err := fmt.Fprintf(f, "%s\n\n", a.title); err != nil {
			return fmt.Errorf("write header %s: %w", a.path, err)
		}
	}
	if _, err := fmt.Fprintf(f, "%s\n", text); err != nil {
		return fmt.Errorf("append output %s: %w", a.path, err)
	}
	return nil
}

// Truncate resets the document to just its title header. Only the
// explicit reset path uses this; normal runs are append-only.
func (a *Appender) Truncate() error {
	if err := os.WriteFile(a.path, []byte(a.title+"\n\n"), 0o644); err != nil {
		return fmt.Errorf("truncate output %s: %w", a.path, err)
	}
	return nil
}

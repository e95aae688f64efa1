package document

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/melodyhei/handwriten2md/constants"
)

// Parse reads a line-oriented output document back into its sections.
// A line starting with the section prefix opens a new section whose id
// is the remainder of that line; subsequent non-blank, non-rule lines
// are newline-joined into the body. A trailing section is emitted at
// end of input. Zero recognized headers yields an empty slice.
func Parse(r io.Reader) ([]Section, error) {
	var (
		sections []Section
		current  string
		body     []string
	)

	flush := func() {
		if current != "" && len(body) > 0 {
			sections = append(sections, Section{ID: current, Body: strings.Join(body, "\n")})
		}
		body = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, constants.SectionPrefix) {
			flush()
			current = strings.TrimSpace(strings.TrimPrefix(line, constants.SectionPrefix))
			continue
		}
		if strings.HasPrefix(line, constants.SectionRule) {
			continue
		}
		// Lines before the first header (the document title) have no
		// section to belong to.
		if current != "" {
			body = append(body, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	flush()
	return sections, nil
}

// ParseFile parses the document at path. A missing file is a fatal
// condition for the caller, reported as-is.
func ParseFile(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

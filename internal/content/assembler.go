package content

import (
	"fmt"
	"strings"

	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// AssembleSections maps one module's raw generated text onto the module's
// outlined sections. The text is split on markdown headings (one or two
// leading '#'); text before the first heading is discarded as preamble, and a
// level-1 module title heading followed by level-2 sections is discarded with
// its fragment. Fragment i then feeds section i. Any section without a usable
// fragment gets template filler, and a module with no recognizable headings
// degrades entirely to filler. That is graceful degradation, not an error.
func AssembleSections(req ModuleRequest, raw string) []types.ContentSection {
	parts := splitOnHeadings(raw)

	// "# Module Title" above "## Section" headings carries the module
	// intro, not section content.
	if len(parts) > 1 && parts[0].level == 1 && parts[1].level == 2 {
		parts = parts[1:]
	}

	sections := make([]types.ContentSection, 0, len(req.Module.Sections))
	for i, outline := range req.Module.Sections {
		body := ""
		if i < len(parts) {
			body = strings.TrimSpace(parts[i].body)
		}
		if body == "" {
			body = SectionFiller(req, outline)
		}
		sections = append(sections, types.ContentSection{
			ID:              fmt.Sprintf("%s-section-%d", req.Module.ID, i+1),
			Title:           outline.Title,
			Content:         body,
			ContentType:     outline.ContentType,
			Order:           i + 1,
			DurationMinutes: outline.DurationMinutes,
		})
	}
	return sections
}

type headingPart struct {
	level int
	body  string
}

// splitOnHeadings returns the text fragment following each heading line,
// preamble excluded. Heading lines themselves are not part of any fragment;
// section titles come from the outline.
func splitOnHeadings(raw string) []headingPart {
	lines := strings.Split(raw, "\n")

	var parts []headingPart
	var current strings.Builder
	level := 0

	flush := func() {
		if level > 0 {
			parts = append(parts, headingPart{level: level, body: current.String()})
		}
		current.Reset()
	}

	for _, line := range lines {
		if l := headingLevel(line); l > 0 {
			flush()
			level = l
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return parts
}

// headingLevel reports the markdown heading level of a line, or 0 when the
// line is not a level-1 or level-2 heading.
func headingLevel(line string) int {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0
	}
	rest := strings.TrimLeft(trimmed, "#")
	level := len(trimmed) - len(rest)
	if level > 2 {
		return 0
	}
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return 0
	}
	return level
}

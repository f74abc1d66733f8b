package content

import (
	"fmt"
	"strings"

	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// PersonalizationContext is the learner snapshot threaded through prompt
// construction and fallback templates.
type PersonalizationContext struct {
	Name           string
	Position       string
	Department     string
	ProfileSummary string
	Format         string
	WeeklyTime     string
	Interests      []string
}

// ModuleRequest is one unit of generation work: a single module of a course
// for a single learner.
type ModuleRequest struct {
	Course  *types.Course
	Module  ModuleOutline
	Learner PersonalizationContext
}

// SectionFiller synthesizes placeholder section content from the course,
// module, and learner context. It is the text of the static fallback strategy
// and of assembler shortfall filler, so both degrade identically.
func SectionFiller(req ModuleRequest, section SectionOutline) string {
	position := req.Learner.Position
	if position == "" {
		position = "professional"
	}
	department := req.Learner.Department
	if department == "" {
		department = "your team"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This section of %q covers %s within the module %q.\n\n",
		req.Course.Title, section.Title, req.Module.Title)
	fmt.Fprintf(&b, "As a %s in the %s department, you will work through the material with examples chosen for your responsibilities. ",
		position, department)
	fmt.Fprintf(&b, "The focus is on %s as it applies to %s.\n\n",
		strings.ToLower(section.Title), req.Course.Title)
	b.WriteString("After completing this section you will be able to apply these concepts in real-world scenarios.")
	return b.String()
}

// FallbackModuleMarkdown renders a full module as markdown with one `##`
// heading per outlined section. Assembling it therefore splits cleanly back
// into the same sections.
func FallbackModuleMarkdown(req ModuleRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", req.Module.Title, req.Module.Description)
	for _, section := range req.Module.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Title, SectionFiller(req, section))
	}
	return strings.TrimSpace(b.String())
}

package content

import (
	"fmt"

	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

// ModuleCount is fixed: every personalized course artifact carries three
// modules, mirrored by the pipeline's per-module progress checkpoints.
const ModuleCount = 3

type SectionOutline struct {
	Title           string
	ContentType     string
	DurationMinutes int
}

type ModuleOutline struct {
	ID          string
	Title       string
	Description string
	Order       int
	Objectives  []string
	Sections    []SectionOutline
}

type CourseOutline struct {
	CourseTitle string
	Modules     []ModuleOutline
}

var baseSections = []SectionOutline{
	{Title: "Key Concepts", ContentType: "text", DurationMinutes: 15},
	{Title: "Practical Examples", ContentType: "text", DurationMinutes: 20},
	{Title: "Hands-on Exercise", ContentType: "interactive", DurationMinutes: 25},
}

var extraSections = []SectionOutline{
	{Title: "Advanced Techniques", ContentType: "text", DurationMinutes: 20},
	{Title: "Summary and Review", ContentType: "text", DurationMinutes: 10},
}

// BuildOutline derives the module/section skeleton for a course. It is a pure
// function of the course record: identical input produces a structurally
// identical outline, so repeated regeneration only differs in generated text.
func BuildOutline(course *types.Course) CourseOutline {
	outline := CourseOutline{CourseTitle: course.Title}

	for i := 0; i < ModuleCount; i++ {
		var title, description string
		switch i {
		case 0:
			title = fmt.Sprintf("Introduction to %s", course.Title)
			description = fmt.Sprintf("Foundations of %s and why they matter for your role.", course.Title)
		case 1:
			title = fmt.Sprintf("Core Concepts of %s", course.Title)
			description = fmt.Sprintf("The essential techniques of %s applied to realistic scenarios.", course.Title)
		default:
			title = "Advanced Topics and Case Studies"
			description = fmt.Sprintf("Deep dives and case studies building on %s.", course.Title)
		}

		sections := make([]SectionOutline, 0, len(baseSections)+i)
		sections = append(sections, baseSections...)
		// Later modules grow by one section each, same shape as the
		// original platform's templates.
		for j := 0; j < i && j < len(extraSections); j++ {
			sections = append(sections, extraSections[j])
		}

		outline.Modules = append(outline.Modules, ModuleOutline{
			ID:          fmt.Sprintf("module-%d", i+1),
			Title:       title,
			Description: description,
			Order:       i + 1,
			Objectives:  moduleObjectives(course, title),
			Sections:    sections,
		})
	}

	return outline
}

func moduleObjectives(course *types.Course, moduleTitle string) []string {
	difficulty := course.Difficulty
	if difficulty == "" {
		difficulty = "intermediate"
	}
	return []string{
		fmt.Sprintf("Understand the core principles covered in %s", moduleTitle),
		fmt.Sprintf("Apply %s techniques at a %s level", course.Title, difficulty),
		"Relate the material to day-to-day responsibilities in your role",
	}
}

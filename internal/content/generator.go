package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillforge-hq/skillforge-backend/internal/llm"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
)

// Strategy names recorded in artifact metadata.
const (
	StrategyAgent    = "agent"
	StrategyProvider = "provider"
	StrategyTemplate = "template"
)

// ContentGenerator produces raw module text for one ModuleRequest.
type ContentGenerator interface {
	Name() string
	GenerateModule(ctx context.Context, req ModuleRequest) (string, error)
}

// Chain tries its generators in priority order and returns the first
// successful result. Generate never fails: the template strategy closes the
// chain and cannot error, so one module's provider trouble can never sink a
// whole run.
type Chain struct {
	log        *logger.Logger
	generators []ContentGenerator
}

func NewChain(log *logger.Logger, generators ...ContentGenerator) *Chain {
	return &Chain{
		log:        log.With("component", "GenerationChain"),
		generators: generators,
	}
}

// NewDefaultChain wires the standard ladder: agent-backed generation, then a
// direct provider call, then the static template fallback.
func NewDefaultChain(log *logger.Logger, client llm.Client) *Chain {
	return NewChain(log,
		NewAgentGenerator(client),
		NewProviderGenerator(client),
		NewTemplateGenerator(),
	)
}

func (c *Chain) Generate(ctx context.Context, req ModuleRequest) (string, string) {
	for _, gen := range c.generators {
		text, err := gen.GenerateModule(ctx, req)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, gen.Name()
		}
		if err != nil {
			c.log.Warn("Generation strategy failed, trying next",
				"strategy", gen.Name(),
				"module", req.Module.ID,
				"course_id", req.Course.ID,
				"error", err.Error(),
			)
		}
	}
	// Unreachable when the template generator is in the chain; kept so a
	// miswired chain still honors the no-failure contract.
	return FallbackModuleMarkdown(req), StrategyTemplate
}

// --- strategy 1: agent-backed generation ---

type agentGenerator struct {
	client llm.Client
}

func NewAgentGenerator(client llm.Client) ContentGenerator {
	return &agentGenerator{client: client}
}

func (g *agentGenerator) Name() string { return StrategyAgent }

func (g *agentGenerator) GenerateModule(ctx context.Context, req ModuleRequest) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("no provider client configured")
	}

	var b strings.Builder
	if req.Learner.ProfileSummary != "" {
		fmt.Fprintf(&b, "Learner background (from their CV):\n%s\n\n", req.Learner.ProfileSummary)
	}
	fmt.Fprintf(&b, "Write the learning module %q for the course %q (%s, %s).\n\n",
		req.Module.Title, req.Course.Title, req.Course.Category, req.Course.Difficulty)
	fmt.Fprintf(&b, "The learner is %s, working as %s in the %s department.\n",
		req.Learner.Name, req.Learner.Position, req.Learner.Department)
	if req.Learner.Format != "" {
		fmt.Fprintf(&b, "They prefer %s content", req.Learner.Format)
		if req.Learner.WeeklyTime != "" {
			fmt.Fprintf(&b, " and have %s available per week", req.Learner.WeeklyTime)
		}
		b.WriteString(".\n")
	}
	if len(req.Learner.Interests) > 0 {
		fmt.Fprintf(&b, "Their stated interests: %s.\n", strings.Join(req.Learner.Interests, ", "))
	}
	b.WriteString("\nLearning objectives:\n")
	for _, obj := range req.Module.Objectives {
		fmt.Fprintf(&b, "- %s\n", obj)
	}
	b.WriteString("\nWrite one markdown section per heading below, starting each with the heading on its own `##` line:\n")
	for _, section := range req.Module.Sections {
		fmt.Fprintf(&b, "## %s\n", section.Title)
	}
	b.WriteString("\nTailor every section to the learner's role and department. Plain markdown only.")

	return g.client.Complete(ctx, b.String(), llm.CompletionOptions{
		SystemPrompt: "You are an expert learning and development content author. You write practical, personalized course material for corporate learners.",
		Temperature:  0.3,
		MaxTokens:    2500,
	})
}

// --- strategy 2: direct provider call ---

type providerGenerator struct {
	client llm.Client
}

func NewProviderGenerator(client llm.Client) ContentGenerator {
	return &providerGenerator{client: client}
}

func (g *providerGenerator) Name() string { return StrategyProvider }

func (g *providerGenerator) GenerateModule(ctx context.Context, req ModuleRequest) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("no provider client configured")
	}

	sectionTitles := make([]string, len(req.Module.Sections))
	for i, section := range req.Module.Sections {
		sectionTitles[i] = section.Title
	}

	prompt := fmt.Sprintf(
		"Write course content for the module %q of %q.\n"+
			"Learner: %s, %s, %s department.\n"+
			"Objectives: %s.\n"+
			"Produce one `##` markdown heading per section, in order: %s.",
		req.Module.Title, req.Course.Title,
		req.Learner.Name, req.Learner.Position, req.Learner.Department,
		strings.Join(req.Module.Objectives, "; "),
		strings.Join(sectionTitles, ", "),
	)

	return g.client.Complete(ctx, prompt, llm.CompletionOptions{
		SystemPrompt: "You write clear, concise corporate training content in markdown.",
		Temperature:  0.2,
		MaxTokens:    1500,
	})
}

// --- strategy 3: static template fallback ---

type templateGenerator struct{}

func NewTemplateGenerator() ContentGenerator {
	return &templateGenerator{}
}

func (g *templateGenerator) Name() string { return StrategyTemplate }

func (g *templateGenerator) GenerateModule(_ context.Context, req ModuleRequest) (string, error) {
	return FallbackModuleMarkdown(req), nil
}

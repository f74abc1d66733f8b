package content

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/llm"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(_ context.Context, _ string, _ llm.CompletionOptions) (string, error) {
	f.calls++
	return f.response, f.err
}

func testModuleRequest() ModuleRequest {
	course := &types.Course{ID: uuid.New(), Title: "Intro to SQL", Difficulty: "beginner"}
	outline := BuildOutline(course)
	return ModuleRequest{
		Course: course,
		Module: outline.Modules[0],
		Learner: PersonalizationContext{
			Name:       "Dana",
			Position:   "Analyst",
			Department: "Finance",
		},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestChainFirstStrategyWins(t *testing.T) {
	client := &fakeClient{response: "## Key Concepts\n\ngenerated text"}
	chain := NewDefaultChain(testLogger(t), client)

	text, strategy := chain.Generate(context.Background(), testModuleRequest())

	if strategy != StrategyAgent {
		t.Fatalf("strategy=%q want=%q", strategy, StrategyAgent)
	}
	if !strings.Contains(text, "generated text") {
		t.Fatalf("text=%q", text)
	}
	if client.calls != 1 {
		t.Fatalf("calls=%d want=1", client.calls)
	}
}

func TestChainFallsThroughToTemplate(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("provider unavailable")}
	chain := NewDefaultChain(testLogger(t), client)
	req := testModuleRequest()

	text, strategy := chain.Generate(context.Background(), req)

	if strategy != StrategyTemplate {
		t.Fatalf("strategy=%q want=%q", strategy, StrategyTemplate)
	}
	// Both provider-backed strategies should have been tried.
	if client.calls != 2 {
		t.Fatalf("calls=%d want=2", client.calls)
	}
	if !strings.Contains(text, req.Module.Title) {
		t.Fatalf("fallback text missing module title: %q", text)
	}
	if !strings.Contains(text, "Analyst") || !strings.Contains(text, "Finance") {
		t.Fatalf("fallback text not personalized: %q", text)
	}
}

func TestChainSkipsBlankResponses(t *testing.T) {
	client := &fakeClient{response: "   \n\t"}
	chain := NewDefaultChain(testLogger(t), client)

	text, strategy := chain.Generate(context.Background(), testModuleRequest())

	if strategy != StrategyTemplate {
		t.Fatalf("strategy=%q want=%q", strategy, StrategyTemplate)
	}
	if strings.TrimSpace(text) == "" {
		t.Fatal("chain returned blank text")
	}
}

func TestChainNeverFailsEvenMiswired(t *testing.T) {
	// A chain without the template generator still has to return text.
	client := &fakeClient{err: fmt.Errorf("boom")}
	chain := NewChain(testLogger(t), NewAgentGenerator(client), NewProviderGenerator(client))

	text, strategy := chain.Generate(context.Background(), testModuleRequest())

	if strategy != StrategyTemplate {
		t.Fatalf("strategy=%q want=%q", strategy, StrategyTemplate)
	}
	if strings.TrimSpace(text) == "" {
		t.Fatal("chain returned blank text")
	}
}

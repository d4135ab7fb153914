package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/avrett/docqa/internal/document"
	"github.com/avrett/docqa/internal/history"
)

// fakeModel returns a canned answer and records the messages it was given.
type fakeModel struct {
	answer string
	err    error
	seen   [][]*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = append(f.seen, in)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.answer, nil), nil
}

func (f *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

// fakeRetriever returns canned documents for every query.
type fakeRetriever struct {
	docs []document.Document
	err  error
}

func (f *fakeRetriever) Retrieve(context.Context, string, int) ([]document.Document, error) {
	return f.docs, f.err
}

// openTestHistory opens an in-memory history store.
func openTestHistory(t *testing.T) *history.SQLiteStore {
	t.Helper()
	s, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Engine_AnswerGroundedInExcerpts(t *testing.T) {
	t.Parallel()

	m := &fakeModel{answer: "the crust is widely praised"}
	e, err := New(&Config{
		ChatModel: m,
		Retriever: &fakeRetriever{docs: []document.Document{
			{Source: "/data/reviews.csv", Content: "Best pizza in town The crust was perfect."},
		}},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	answer, err := e.Answer(context.Background(), "what about the crust?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "the crust is widely praised" {
		t.Errorf("answer: got %q", answer)
	}

	msgs := m.seen[0]
	// Expected shape: [system persona, system excerpts, user question].
	if len(msgs) != 3 {
		t.Fatalf("want 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Errorf("msg[0] role: %s", msgs[0].Role)
	}
	if !strings.Contains(msgs[1].Content, "The crust was perfect.") ||
		!strings.Contains(msgs[1].Content, "/data/reviews.csv") {
		t.Errorf("excerpt message missing content or source: %q", msgs[1].Content)
	}
	if msgs[2].Role != schema.User || msgs[2].Content != "what about the crust?" {
		t.Errorf("msg[2]: %s/%q", msgs[2].Role, msgs[2].Content)
	}
}

func Test_Engine_RetrievalFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	m := &fakeModel{answer: "best effort answer"}
	e, err := New(&Config{
		ChatModel: m,
		Retriever: &fakeRetriever{err: errors.New("store down")},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	answer, err := e.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("retrieval failure should not fail the answer: %v", err)
	}
	if answer != "best effort answer" {
		t.Errorf("answer: got %q", answer)
	}
	// No excerpt message: just persona + question.
	if len(m.seen[0]) != 2 {
		t.Errorf("want 2 messages without excerpts, got %d", len(m.seen[0]))
	}
}

func Test_Engine_HistoryPersistedAndReplayed(t *testing.T) {
	t.Parallel()

	hs := openTestHistory(t)
	m := &fakeModel{answer: "answer one"}
	e, err := New(&Config{
		ChatModel:  m,
		History:    hs,
		Collection: "csv_reviews",
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	ctx := context.Background()

	if _, err := e.Answer(ctx, "first question"); err != nil {
		t.Fatalf("first answer: %v", err)
	}

	m.answer = "answer two"
	if _, err := e.Answer(ctx, "second question"); err != nil {
		t.Fatalf("second answer: %v", err)
	}

	// Second call must replay the first turn between persona and question.
	msgs := m.seen[1]
	if len(msgs) != 4 {
		t.Fatalf("want [system, user, assistant, user], got %d messages", len(msgs))
	}
	if msgs[1].Content != "first question" || msgs[2].Content != "answer one" {
		t.Errorf("replayed turn: %q / %q", msgs[1].Content, msgs[2].Content)
	}

	// Both turns persisted.
	stored, err := hs.Recent(ctx, "csv_reviews", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(stored) != 4 {
		t.Errorf("want 4 stored messages, got %d", len(stored))
	}
}

func Test_Engine_ResetClearsThread(t *testing.T) {
	t.Parallel()

	hs := openTestHistory(t)
	m := &fakeModel{answer: "a"}
	e, err := New(&Config{ChatModel: m, History: hs, Collection: "csv_reviews"})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	ctx := context.Background()

	if _, err := e.Answer(ctx, "q"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := e.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	stored, err := hs.Recent(ctx, "csv_reviews", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("want empty thread after reset, got %d", len(stored))
	}
}

func Test_Engine_GenerateErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("model unavailable")
	e, err := New(&Config{ChatModel: &fakeModel{err: wantErr}})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if _, err := e.Answer(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Fatalf("want model error, got %v", err)
	}
}

func Test_New_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(&Config{}); err == nil {
		t.Error("want error for nil chat model")
	}
	if _, err := New(&Config{ChatModel: &fakeModel{}, History: openTestHistory(t)}); err == nil {
		t.Error("want error for history without collection")
	}
}

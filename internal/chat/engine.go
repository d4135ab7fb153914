// Package chat implements the question-answering engine: it grounds each
// question in excerpts retrieved from the vector store, injects recent
// conversation history, and calls the chat model for the final answer.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/avrett/docqa/internal/budget"
	"github.com/avrett/docqa/internal/document"
	"github.com/avrett/docqa/internal/history"
	"github.com/avrett/docqa/internal/logging"
	"github.com/avrett/docqa/internal/rag"
)

// systemPrompt establishes the persona and grounding rules for every answer.
// Retrieved excerpts are injected as a separate system message per question.
const systemPrompt = `You are an expert assistant answering questions about a collection of documents.

Ground every answer in the document excerpts provided with the question.
If the excerpts do not contain the information needed, say so plainly instead
of guessing. Be concise and direct. Quote or paraphrase the excerpts where it
helps the user verify the answer.`

// Config holds the dependencies required to construct an Engine.
type Config struct {
	// ChatModel is the LLM backend constructed by the provider factory.
	ChatModel model.ToolCallingChatModel

	// Retriever fetches relevant document excerpts for each question.
	// May be nil, in which case answers are ungrounded.
	Retriever rag.Retriever

	// TopK controls how many excerpts are injected per question.
	// Defaults to 5 if zero.
	TopK int

	// History is the optional conversation store used to persist and replay
	// prior turns. If nil, each question is stateless.
	History history.ConversationStore

	// Collection keys the conversation thread in the history store.
	// Required when History is non-nil.
	Collection string

	// HistoryDepth is the number of prior turns (user+assistant pairs) to
	// inject per question. Defaults to 10 if zero.
	HistoryDepth int

	// MaxContextTokens is the estimated token budget for the full input
	// context (system prompt + history + excerpts + question). History is
	// trimmed oldest-first to fit. Defaults to budget.DefaultMaxContextTokens
	// if zero.
	MaxContextTokens int
}

// Engine answers questions about one document collection.
type Engine struct {
	chatModel        model.ToolCallingChatModel
	retriever        rag.Retriever
	topK             int
	history          history.ConversationStore
	collection       string
	historyDepth     int
	maxContextTokens int
}

// New constructs an Engine from the provided Config.
func New(cfg *Config) (*Engine, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("chat: ChatModel must not be nil")
	}
	if cfg.History != nil && cfg.Collection == "" {
		return nil, fmt.Errorf("chat: Collection is required when History is set")
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}

	return &Engine{
		chatModel:        cfg.ChatModel,
		retriever:        cfg.Retriever,
		topK:             topK,
		history:          cfg.History,
		collection:       cfg.Collection,
		historyDepth:     depth,
		maxContextTokens: maxCtx,
	}, nil
}

// Answer retrieves excerpts for the question, builds the grounded message
// slice, and returns the model's answer. If a conversation store is
// configured, prior turns are injected and the new turn is persisted after
// completion. History persistence failures are non-fatal.
func (e *Engine) Answer(ctx context.Context, question string) (string, error) {
	messages := e.buildMessages(ctx, question)

	resp, err := e.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat: generate failed: %w", err)
	}
	answer := resp.Content

	if e.history != nil {
		if err := e.history.Append(ctx, e.collection, history.RoleUser, question); err != nil {
			logging.FromContext(ctx).Warn("history: failed to persist user message", slog.Any("error", err))
		}
		if err := e.history.Append(ctx, e.collection, history.RoleAssistant, answer); err != nil {
			logging.FromContext(ctx).Warn("history: failed to persist assistant message", slog.Any("error", err))
		}
	}

	return answer, nil
}

// Reset clears the conversation thread for this engine's collection.
// It is a no-op when no history store is configured.
func (e *Engine) Reset(ctx context.Context) error {
	if e.history == nil {
		return nil
	}
	if err := e.history.Clear(ctx, e.collection); err != nil {
		return fmt.Errorf("chat: reset: %w", err)
	}
	return nil
}

// buildMessages constructs the message slice for the model: system prompt,
// trimmed history, retrieved excerpts, then the current question.
func (e *Engine) buildMessages(ctx context.Context, question string) []*schema.Message {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}

	// Inject recent conversation history so the LLM has multi-turn context.
	// History is trimmed oldest-first to stay within the token budget.
	var historyMsgs []*schema.Message
	if e.history != nil {
		prior, err := e.history.Recent(ctx, e.collection, e.historyDepth*2)
		if err != nil {
			logging.FromContext(ctx).Warn("history: failed to load prior messages", slog.Any("error", err))
		} else {
			for _, m := range prior {
				switch m.Role {
				case history.RoleUser:
					historyMsgs = append(historyMsgs, schema.UserMessage(m.Content))
				case history.RoleAssistant:
					historyMsgs = append(historyMsgs, schema.AssistantMessage(m.Content, nil))
				}
			}
		}
	}

	if e.retriever != nil {
		docs, err := e.retriever.Retrieve(ctx, question, e.topK)
		if err != nil {
			// Retrieval failure is non-fatal: log and answer without excerpts.
			logging.FromContext(ctx).Warn("retrieval failed, answering without excerpts", slog.Any("error", err))
		} else if len(docs) > 0 {
			messages = append(messages, schema.SystemMessage(buildExcerptContext(docs)))
		}
	}

	// Add the current question to the fixed set for budget calculation.
	fixed := append(messages, schema.UserMessage(question)) //nolint:gocritic // intentional copy

	before := len(historyMsgs)
	historyMsgs = budget.TrimHistory(fixed, historyMsgs, e.maxContextTokens)
	if dropped := before - len(historyMsgs); dropped > 0 {
		logging.FromContext(ctx).Warn("budget: dropped history messages to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(historyMsgs)),
			slog.Int("max_tokens", e.maxContextTokens),
		)
	}

	// Final order: [system, ...history, ...excerpts, question].
	result := make([]*schema.Message, 0, len(messages)+len(historyMsgs)+1)
	result = append(result, messages[0])
	result = append(result, historyMsgs...)
	result = append(result, messages[1:]...)
	result = append(result, schema.UserMessage(question))
	return result
}

// buildExcerptContext formats retrieved documents into a system message that
// grounds the model's answer in the source material.
func buildExcerptContext(docs []document.Document) string {
	var sb strings.Builder
	sb.WriteString("## Relevant Document Excerpts\n\n")
	sb.WriteString("The following excerpts were retrieved for the user's question. ")
	sb.WriteString("Base your answer on them.\n\n")

	for i, doc := range docs {
		fmt.Fprintf(&sb, "### Excerpt %d (source: %s)\n%s\n\n", i+1, doc.Source, doc.Content)
	}

	return sb.String()
}

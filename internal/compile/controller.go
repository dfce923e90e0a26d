// File path: internal/compile/controller.go
package compile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/document"
	"github.com/fillora/fillora/internal/llm"
	"github.com/fillora/fillora/internal/prompt"
)

// State names the phases of one compilation request.
type State string

const (
	StateIdle                State = "idle"
	StateStreaming           State = "streaming"
	StateComplete            State = "complete"
	StateIncompleteRetry     State = "incomplete_retry"
	StateIncompleteExhausted State = "incomplete_exhausted"
)

// ErrCompileInProgress is returned when a second compilation is requested
// for a conversation that is already streaming.
var ErrCompileInProgress = errors.New("compilation already in progress")

// SnapshotStore receives document bodies as they accumulate. Both calls are
// best-effort from the controller's perspective: failures are logged and
// never abort an otherwise successful compilation.
type SnapshotStore interface {
	SaveIntermediateSnapshot(ctx context.Context, conversationID, body string) error
	SaveFinalSnapshot(ctx context.Context, conversationID, body string) error
}

// Config controls the auto-continue loop.
type Config struct {
	// MaxRetries caps the "continue filling" attempts after the initial
	// stream.
	MaxRetries int
	// RetryDelay is the pause before each retry, long enough for the user to
	// read the current state.
	RetryDelay time.Duration
	// Window bounds how much history is fed to the model.
	Window prompt.Config
}

// DefaultConfig returns the production loop bounds.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Window:     prompt.DefaultConfig(),
	}
}

// Request describes one compilation run.
type Request struct {
	ConversationID string
	// Prompt is the pending user message.
	Prompt string
	// History is the full prior conversation; the controller selects the
	// window that fits the token budget.
	History []llm.Message
	// ContextText is opaque prompt content (template text, entity registry)
	// injected ahead of the history.
	ContextText string
	// Status receives transient progress lines split from the stream.
	Status func(line string)
}

// Result reports the terminal state of a compilation.
type Result struct {
	State            State  `json:"state"`
	Body             string `json:"body"`
	Retries          int    `json:"retries"`
	PlaceholdersLeft int    `json:"placeholders_left"`
}

const systemPrompt = "You are Fillora, a meticulous document compilation assistant. " +
	"Fill the user's template completely, preserving its layout and labels exactly. " +
	"Replace every placeholder with concrete content drawn from the conversation. " +
	"Report progress with lines starting with [PROGRESS] followed by a short status and a newline."

const continueInstruction = "Some fields are still unfilled. Continue filling the remaining " +
	"placeholders in the document above. Return the complete document again with every " +
	"placeholder replaced; keep all content that is already filled in unchanged."

// Controller drives compilation requests. It holds no shared mutable state
// across requests beyond the per-conversation in-flight registry used to
// enforce one stream per conversation and to deliver aborts.
type Controller struct {
	cfg       Config
	provider  llm.Provider
	snapshots SnapshotStore

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewController wires a provider and an optional snapshot store.
func NewController(cfg Config, provider llm.Provider, snapshots SnapshotStore) *Controller {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	return &Controller{
		cfg:       cfg,
		provider:  provider,
		snapshots: snapshots,
		active:    make(map[string]context.CancelFunc),
	}
}

// Compile runs the full state machine for one request:
//
//	IDLE -> STREAMING -> (COMPLETE | INCOMPLETE_RETRY* -> COMPLETE | INCOMPLETE_EXHAUSTED) -> IDLE
//
// The in-flight flag is claimed synchronously before the first await so two
// rapid calls cannot both observe an idle conversation. Upstream failures
// (notably llm.ErrRateLimited) propagate to the caller without automatic
// retry; placeholder-driven retries are bounded by Config.MaxRetries and
// ending with placeholders left is a non-fatal, success-with-caveats state.
func (c *Controller) Compile(ctx context.Context, req Request) (Result, error) {
	logger := common.Logger()
	if strings.TrimSpace(req.ConversationID) == "" {
		return Result{State: StateIdle}, errors.New("conversation id required")
	}
	runCtx, cancel, err := c.claim(ctx, req.ConversationID)
	if err != nil {
		return Result{State: StateIdle}, err
	}
	defer c.release(req.ConversationID, cancel)

	messages, err := llm.NormalizeMessages(c.buildMessages(req))
	if err != nil {
		return Result{State: StateIdle}, err
	}
	retries := 0
	for {
		body, streamErr := c.streamOnce(runCtx, req, messages)
		if streamErr != nil {
			if errors.Is(streamErr, context.Canceled) || errors.Is(streamErr, context.DeadlineExceeded) {
				logger.Info("compile: run aborted", "conversation", req.ConversationID)
				return Result{State: StateIdle, Body: body, Retries: retries}, streamErr
			}
			logger.Error("compile: stream failed", "conversation", req.ConversationID, "error", streamErr)
			return Result{State: StateIdle, Body: body, Retries: retries}, streamErr
		}
		if !document.ContainsPlaceholders(body) {
			c.persistFinal(runCtx, req.ConversationID, body)
			logger.Info("compile: document complete", "conversation", req.ConversationID, "retries", retries)
			return Result{State: StateComplete, Body: body, Retries: retries}, nil
		}
		remaining := document.CountPlaceholders(body)
		if retries >= c.cfg.MaxRetries {
			logger.Info("compile: retries exhausted with placeholders remaining",
				"conversation", req.ConversationID, "placeholders", remaining)
			return Result{
				State:            StateIncompleteExhausted,
				Body:             body,
				Retries:          retries,
				PlaceholdersLeft: remaining,
			}, nil
		}
		retries++
		if req.Status != nil {
			req.Status(fmt.Sprintf("Continuing: %d placeholders remain (attempt %d of %d)",
				remaining, retries, c.cfg.MaxRetries))
		}
		if err := c.pause(runCtx); err != nil {
			return Result{State: StateIdle, Body: body, Retries: retries}, err
		}
		messages = append(messages,
			llm.Message{Role: "assistant", Content: body},
			llm.Message{Role: "user", Content: continueInstruction},
		)
	}
}

// Abort cancels the in-flight compilation for a conversation, if any. The
// controller returns to IDLE without persisting the partial body as final;
// intermediate snapshots already saved remain as a recovery point.
func (c *Controller) Abort(conversationID string) bool {
	c.mu.Lock()
	cancel, ok := c.active[conversationID]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether a compilation is in flight for the conversation.
func (c *Controller) Running(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[conversationID]
	return ok
}

func (c *Controller) claim(ctx context.Context, conversationID string) (context.Context, context.CancelFunc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.active[conversationID]; ok {
		return nil, nil, ErrCompileInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.active[conversationID] = cancel
	return runCtx, cancel, nil
}

func (c *Controller) release(conversationID string, cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	delete(c.active, conversationID)
	c.mu.Unlock()
}

func (c *Controller) buildMessages(req Request) []llm.Message {
	messages := []llm.Message{{Role: "system", Content: systemPrompt}}
	if strings.TrimSpace(req.ContextText) != "" {
		messages = append(messages, llm.Message{Role: "system", Content: req.ContextText})
	}
	selected := prompt.SelectRelevantMessages(req.History, req.Prompt, c.cfg.Window)
	messages = append(messages, selected...)
	if strings.TrimSpace(req.Prompt) != "" {
		messages = append(messages, llm.Message{Role: "user", Content: req.Prompt})
	}
	return messages
}

// streamOnce consumes a single model stream, splitting progress lines from
// the accumulating body and persisting an intermediate snapshot after each
// chunk.
func (c *Controller) streamOnce(ctx context.Context, req Request, messages []llm.Message) (string, error) {
	splitter := newProgressSplitter(req.Status)
	var body strings.Builder
	err := c.provider.ChatStream(ctx, messages, func(delta string) error {
		body.WriteString(splitter.Feed(delta))
		c.persistIntermediate(ctx, req.ConversationID, body.String())
		return nil
	})
	body.WriteString(splitter.Flush())
	return body.String(), err
}

func (c *Controller) persistIntermediate(ctx context.Context, conversationID, body string) {
	if c.snapshots == nil || body == "" {
		return
	}
	if err := c.snapshots.SaveIntermediateSnapshot(ctx, conversationID, body); err != nil {
		common.Logger().Warn("compile: intermediate snapshot failed", "conversation", conversationID, "error", err)
	}
}

func (c *Controller) persistFinal(ctx context.Context, conversationID, body string) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.SaveFinalSnapshot(ctx, conversationID, body); err != nil {
		common.Logger().Warn("compile: final snapshot failed", "conversation", conversationID, "error", err)
	}
}

func (c *Controller) pause(ctx context.Context) error {
	if c.cfg.RetryDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.cfg.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

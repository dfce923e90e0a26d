// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/fillora/fillora/internal/agent"
	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/compile"
	"github.com/fillora/fillora/internal/document"
	"github.com/fillora/fillora/internal/llm"
	"github.com/fillora/fillora/internal/store"
)

// Server exposes the compilation engine over HTTP.
type Server struct {
	router     chi.Router
	store      *store.Store
	provider   llm.Provider
	controller *compile.Controller
	parser     *document.Parser
	merger     *document.Merger
	mergeCache *document.MergeCache
	extractor  *agent.Extractor
	statuses   *statusBoard
}

// Config controls server-owned behaviour.
type Config struct {
	// MergeCacheTTL bounds how long a merged preview may be served without
	// recomputation even absent invalidation.
	MergeCacheTTL time.Duration
	// Compile overrides the controller loop bounds.
	Compile compile.Config
}

// DefaultConfig returns the standard server settings.
func DefaultConfig() Config {
	return Config{
		MergeCacheTTL: time.Minute,
		Compile:       compile.DefaultConfig(),
	}
}

// NewServer wires the store and provider into a ready router.
func NewServer(st *store.Store, provider llm.Provider, cfg *Config) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if provider == nil {
		provider = llm.NewProvider()
	}
	configuration := DefaultConfig()
	if cfg != nil {
		if cfg.MergeCacheTTL > 0 {
			configuration.MergeCacheTTL = cfg.MergeCacheTTL
		}
		if cfg.Compile.MaxRetries > 0 {
			configuration.Compile = cfg.Compile
		}
	}
	parser := document.NewParser(document.DefaultParserConfig())
	s := &Server{
		router:     chi.NewRouter(),
		store:      st,
		provider:   provider,
		controller: compile.NewController(configuration.Compile, provider, st),
		parser:     parser,
		merger:     document.NewMerger(parser),
		mergeCache: document.NewMergeCache(configuration.MergeCacheTTL),
		extractor:  agent.NewExtractor(provider),
		statuses:   newStatusBoard(),
	}
	s.routes()
	common.Logger().Info("api: server initialized", "provider", provider.Name())
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Post("/v1/conversations", s.handleConversationCreate)
	s.router.Get("/v1/conversations", s.handleConversationList)
	s.router.Get("/v1/conversations/{id}", s.handleConversationGet)
	s.router.Post("/v1/conversations/{id}/template", s.handleTemplateUpload)
	s.router.Get("/v1/conversations/{id}/messages", s.handleMessages)
	s.router.Post("/v1/conversations/{id}/compile", s.handleCompile)
	s.router.Post("/v1/conversations/{id}/compile/abort", s.handleCompileAbort)
	s.router.Get("/v1/conversations/{id}/status", s.handleCompileStatus)
	s.router.Get("/v1/conversations/{id}/edits", s.handleEditList)
	s.router.Put("/v1/conversations/{id}/edits/{fieldID}", s.handleEditSave)
	s.router.Delete("/v1/conversations/{id}/edits/{fieldID}", s.handleEditDelete)
	s.router.Delete("/v1/conversations/{id}/edits", s.handleEditClear)
	s.router.Get("/v1/conversations/{id}/document", s.handleDocument)
	s.router.Get("/v1/conversations/{id}/structure", s.handleStructure)
	s.router.Get("/v1/conversations/{id}/sheet", s.handleSheet)
	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("api: request failed", "status", status, "error", err)
	} else {
		logger.Warn("api: request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusBoard buffers the transient progress lines split out of each
// compilation stream so the UI can poll them.
type statusBoard struct {
	mu    sync.Mutex
	max   int
	lines map[string][]string
}

func newStatusBoard() *statusBoard {
	return &statusBoard{max: 50, lines: make(map[string][]string)}
}

func (b *statusBoard) push(conversationID, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := append(b.lines[conversationID], line)
	if len(lines) > b.max {
		lines = lines[len(lines)-b.max:]
	}
	b.lines[conversationID] = lines
}

func (b *statusBoard) recent(conversationID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.lines[conversationID]
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func (b *statusBoard) reset(conversationID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lines, conversationID)
}

package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/internal/concurrency"
	"github.com/hioload-ai/coderuntime/internal/logging"
	"github.com/hioload-ai/coderuntime/internal/session"
	"github.com/hioload-ai/coderuntime/metrics"
	"github.com/hioload-ai/coderuntime/parse"
	"go.uber.org/zap"
)

// Parser is the subset of api.Parser this gateway depends on; kept as
// its own alias so callers can see at a glance which capability is
// opaque/external (spec.md §1).
type Parser = api.Parser

// EmbedFunc produces the vector for a modified or added parse node,
// given enough context (uri, language) to attach source metadata
// alongside it in whatever embedding store the coordinator backs this
// with. It is parse.EmbedFunc plus the uri/language parse.Cache.Update
// doesn't carry on the node itself.
type EmbedFunc func(id parse.StableID, n *parse.Node, text, uri, language string) ([]float32, error)

// Gateway implements api.Gateway: LSP-style method dispatch against a
// document store, symbol index, and the shared incremental parse
// cache (package parse).
type Gateway struct {
	parser Parser
	cache  *parse.Cache
	embed  EmbedFunc

	docs    *documentStore
	symbols *symbolIndex
	admit   *admissionQueue

	mu      sync.Mutex
	tokens  map[uint64]*session.CancellationToken

	admission AdmissionConfig
	sched     *concurrency.Scheduler

	log *zap.Logger
}

var _ api.Gateway = (*Gateway)(nil)

// WithMetrics attaches m so admission-queue depth/rejection gauges
// report to it; it returns g for chaining at construction time. A
// Gateway built without calling this records no metrics.
func (g *Gateway) WithMetrics(m *metrics.Registry) *Gateway {
	g.admit.m = m
	return g
}

// NewGateway builds a Gateway. embed is used to (re-)embed
// modified/added parse-tree nodes on every didOpen/didChange, wiring
// this package to the embedding layer the way parse.Entry's doc
// comment describes: "wiring the two together is the coordinator's
// job" — the coordinator supplies embed, typically backed by an
// embedding.Cache.
func NewGateway(parser Parser, cache *parse.Cache, embed EmbedFunc, admission AdmissionConfig) *Gateway {
	return &Gateway{
		parser:    parser,
		cache:     cache,
		embed:     embed,
		docs:      newDocumentStore(),
		symbols:   newSymbolIndex(),
		admit:     newAdmissionQueue(admission),
		tokens:    make(map[uint64]*session.CancellationToken),
		admission: admission,
		sched:     concurrency.NewScheduler(),
		log:       logging.New("lsp"),
	}
}

// Close stops the gateway's request-timeout scheduler. Safe to call
// once during shutdown; pending timeouts are dropped without firing.
func (g *Gateway) Close() {
	g.sched.Close()
}

// Cancel trips the cancellation token for an in-flight request id, if
// one is still registered (spec.md §4.10 "Cancellation").
func (g *Gateway) Cancel(id uint64) {
	g.mu.Lock()
	tok, ok := g.tokens[id]
	g.mu.Unlock()
	if ok {
		tok.Cancel()
	}
}

func (g *Gateway) registerToken(id uint64) *session.CancellationToken {
	tok := session.NewCancellationToken()
	g.mu.Lock()
	g.tokens[id] = tok
	g.mu.Unlock()
	return tok
}

func (g *Gateway) unregisterToken(id uint64) {
	g.mu.Lock()
	delete(g.tokens, id)
	g.mu.Unlock()
}

// Handle routes req to its method handler under admission control and
// per-request cancellation (spec.md §4.10).
func (g *Gateway) Handle(ctx context.Context, req *api.LspRequest) *api.LspResponse {
	if err := g.admit.tryAdmit(req.Priority); err != nil {
		return errorResponse(req.ID, err)
	}

	tok := g.registerToken(req.ID)
	defer g.unregisterToken(req.ID)
	defer func() {
		tok.Complete()
	}()

	if g.admission.RequestTimeout > 0 {
		cancelHandle, _ := g.sched.Schedule(g.admission.RequestTimeout.Nanoseconds(), func() {
			tok.Cancel()
		})
		defer cancelHandle.Cancel()
	}

	result, err := g.dispatch(ctx, tok, req)
	g.admit.release(req.Priority, err)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return errorResponse(req.ID, marshalErr)
	}
	return &api.LspResponse{ID: req.ID, Result: payload}
}

func (g *Gateway) dispatch(ctx context.Context, tok *session.CancellationToken, req *api.LspRequest) (any, error) {
	select {
	case <-ctx.Done():
		return nil, api.ErrCancelled
	case <-tok.Done():
		return nil, api.ErrCancelled
	default:
	}

	switch req.Method {
	case "textDocument/documentSymbol":
		return g.handleDocumentSymbol(req.Params)
	case "textDocument/hover":
		return g.handleHover(req.Params)
	case "textDocument/definition":
		return g.handleDefinition(req.Params)
	case "textDocument/references":
		return g.handleReferences(req.Params)
	case "textDocument/foldingRange":
		return g.handleFoldingRange(req.Params)
	case "textDocument/semanticTokens/full":
		return g.handleSemanticTokens(req.Params)
	case "workspace/symbol":
		return g.handleWorkspaceSymbol(req.Params)
	default:
		return nil, api.NewError(api.ErrCodeMethodNotFound, "unknown LSP method: "+req.Method)
	}
}

// DidOpen parses text, updates the parse cache and symbol index, and
// stores the document (spec.md §4.10 "Concurrency": writes are
// serialized per URI).
func (g *Gateway) DidOpen(ctx context.Context, uri string, text string, version int, language string) error {
	lock := g.docs.lockURI(uri)
	lock.Lock()
	defer lock.Unlock()

	return g.reparse(uri, text, version, language)
}

// DidChange re-parses the new full text for uri (full-document sync;
// see params.go's didChangeParams comment) and updates caches.
func (g *Gateway) DidChange(ctx context.Context, uri string, text string, version int) error {
	lock := g.docs.lockURI(uri)
	lock.Lock()
	defer lock.Unlock()

	return g.reparse(uri, text, version, g.docs.language(uri))
}

// DidClose evicts uri from every tier of state the gateway owns.
func (g *Gateway) DidClose(ctx context.Context, uri string) error {
	lock := g.docs.lockURI(uri)
	lock.Lock()
	defer lock.Unlock()

	g.docs.delete(uri)
	g.symbols.remove(uri)
	return g.cache.EvictFile(uri)
}

func (g *Gateway) reparse(uri, text string, version int, language string) error {
	source := []byte(text)
	tree, err := g.parser.Parse(language, source, g.priorTree(uri))
	if err != nil {
		return err
	}
	tree.URI = uri
	tree.Version = version

	boundEmbed := func(id parse.StableID, n *parse.Node, text string) ([]float32, error) {
		return g.embed(id, n, text, uri, language)
	}
	if _, err := g.cache.Update(tree, language, source, time.Now(), boundEmbed); err != nil {
		g.log.Warn("parse cache update failed", zap.String("uri", uri), zap.Error(err))
		return err
	}

	g.symbols.update(uri, tree, source)
	doc := &api.Document{URI: uri, Text: text, Version: version, Tree: tree}
	g.docs.put(doc, language)
	return nil
}

func (g *Gateway) priorTree(uri string) *parse.Tree {
	if d, ok := g.docs.get(uri); ok {
		return d.Tree
	}
	return nil
}

// InFlight reports the number of requests currently admitted but not
// yet released, for the coordinator's shutdown drain (spec.md §4.11).
func (g *Gateway) InFlight() int {
	return g.admit.count()
}

// OpenDocument is a rehydration-ready snapshot of one open document.
type OpenDocument struct {
	URI      string
	Text     string
	Version  int
	Language string
}

// OpenDocuments snapshots every currently open document, for the
// coordinator's recovery snapshot (spec.md §6.3).
func (g *Gateway) OpenDocuments() []OpenDocument {
	docs := g.docs.all()
	out := make([]OpenDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, OpenDocument{URI: d.URI, Text: d.Text, Version: d.Version, Language: g.docs.language(d.URI)})
	}
	return out
}

func errorResponse(id uint64, err error) *api.LspResponse {
	code := api.ErrCodeInternal
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.Is(err, api.ErrCancelled):
		code = api.ErrCodeRequestCancelled
	case errors.Is(err, api.ErrCircuitOpen):
		code = api.ErrCodeCircuitOpen
	case errors.Is(err, api.ErrQueueFull):
		code = api.ErrCodeResourceExhausted
	case errors.Is(err, api.ErrNotFound):
		code = api.ErrCodeNotFound
	}
	return &api.LspResponse{ID: id, ErrorCode: int(code), ErrorMsg: err.Error()}
}

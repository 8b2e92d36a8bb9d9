// Package service maps operation names onto the scraper, document
// store, and execution facade through a common invocation interface,
// and exposes read-only resource projections of the stored catalog.
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/moma1992/smartcity-mcp/internal/catalog"
	"github.com/moma1992/smartcity-mcp/internal/docstore"
	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/logger"
	"github.com/moma1992/smartcity-mcp/internal/ngsi"
)

// Params carries the arguments of one operation invocation. Fields are
// used per operation; unused fields are ignored.
type Params struct {
	Keyword    string
	ID         string
	EntityType string
	Query      ngsi.QueryParameters
}

// Outcome is the structured result of one operation invocation.
type Outcome struct {
	Text string      `json:"text,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// Handler is the common invocation contract for all operations.
type Handler interface {
	Invoke(ctx context.Context, p Params) (*Outcome, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, p Params) (*Outcome, error)

// Invoke implements Handler.
func (f HandlerFunc) Invoke(ctx context.Context, p Params) (*Outcome, error) {
	return f(ctx, p)
}

// Registry is a plain mapping from operation name to handler.
type Registry struct {
	scraper *catalog.Scraper
	store   *docstore.Store
	exec    *ngsi.Client
	creds   catalog.Credentials
	log     *logger.Logger
	ops     map[string]Handler
}

// NewRegistry wires the standard operation set over the given
// components.
func NewRegistry(scraper *catalog.Scraper, store *docstore.Store, exec *ngsi.Client, creds catalog.Credentials, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Global()
	}
	r := &Registry{
		scraper: scraper,
		store:   store,
		exec:    exec,
		creds:   creds,
		log:     log.WithComponent("service"),
		ops:     make(map[string]Handler),
	}

	r.Register("scrape_catalog", HandlerFunc(r.scrapeCatalog))
	r.Register("search", HandlerFunc(r.search))
	r.Register("load", HandlerFunc(r.load))
	r.Register("generate_command", HandlerFunc(r.generateCommand))
	r.Register("execute", HandlerFunc(r.execute))
	r.Register("list_documents", HandlerFunc(r.listDocuments))

	return r
}

// Register adds or replaces an operation handler.
func (r *Registry) Register(name string, h Handler) {
	r.ops[name] = h
}

// Operations returns the registered operation names, sorted.
func (r *Registry) Operations() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches an operation by name.
func (r *Registry) Invoke(ctx context.Context, name string, p Params) (*Outcome, error) {
	h, ok := r.ops[name]
	if !ok {
		return nil, errors.NewNotFoundError("", fmt.Sprintf("operation %q", name))
	}
	return h.Invoke(ctx, p)
}

func (r *Registry) scrapeCatalog(ctx context.Context, _ Params) (*Outcome, error) {
	if err := r.scraper.Login(ctx, r.creds); err != nil {
		return nil, err
	}

	result, err := r.scraper.Run(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.store.Save(result.Documents, result.Groupings); err != nil {
		return nil, err
	}

	return &Outcome{
		Text: fmt.Sprintf("scraped %d documents (%d partial, %d links skipped)",
			result.Summary.Scraped, result.Summary.Partial, result.Summary.Skipped),
		Data: result.Summary,
	}, nil
}

func (r *Registry) search(_ context.Context, p Params) (*Outcome, error) {
	docs, err := r.store.Search(p.Keyword)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Text: fmt.Sprintf("%d documents match %q", len(docs), p.Keyword),
		Data: docs,
	}, nil
}

func (r *Registry) load(_ context.Context, p Params) (*Outcome, error) {
	doc, err := r.store.Load(p.ID)
	if err != nil {
		return nil, err
	}
	return &Outcome{Text: doc.Name, Data: doc}, nil
}

func (r *Registry) generateCommand(_ context.Context, p Params) (*Outcome, error) {
	doc, err := r.store.Load(p.EntityType)
	if err != nil {
		return nil, err
	}
	examples := ngsi.GenerateCommands(doc)
	return &Outcome{
		Text: fmt.Sprintf("%d example queries for %s", len(examples), p.EntityType),
		Data: examples,
	}, nil
}

func (r *Registry) execute(ctx context.Context, p Params) (*Outcome, error) {
	result, err := r.exec.Execute(ctx, p.EntityType, p.Query)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("%d records for %s", result.Count, p.EntityType)
	if result.RateLimited {
		text += fmt.Sprintf(" (rate limited: remaining %s, reset %s)",
			result.RateRemaining, result.RateReset)
	}
	return &Outcome{Text: text, Data: result}, nil
}

func (r *Registry) listDocuments(_ context.Context, _ Params) (*Outcome, error) {
	index, err := r.store.ListSummary()
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Text: fmt.Sprintf("%d documents stored", len(index)),
		Data: index,
	}, nil
}

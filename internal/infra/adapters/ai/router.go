package ai

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*Router)(nil)

var errNoProvider = errors.New("ai: no provider configured")

// Router sends each call to the provider that owns the requested model.
// Explicit routes win over name prefixes; anything else goes to the fallback provider.
type Router struct {
	fallback  string
	providers map[string]adapter.AIServiceAdapter
	routes    map[string]string
}

type RouterOption func(*Router)

// WithModelRoute pins model to provider regardless of its name.
func WithModelRoute(model, provider string) RouterOption {
	return func(r *Router) { r.routes[model] = strings.ToLower(provider) }
}

func NewRouter(fallback string, providers map[string]adapter.AIServiceAdapter, opts ...RouterOption) *Router {
	r := &Router{
		fallback:  strings.ToLower(fallback),
		providers: providers,
		routes:    map[string]string{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var providerPrefixes = []struct{ prefix, provider string }{
	{"gemini", "gemini"},
	{"gpt", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
}

func (r *Router) providerFor(model string) string {
	if p, ok := r.routes[model]; ok {
		return p
	}
	l := strings.ToLower(model)
	for _, pp := range providerPrefixes {
		if strings.HasPrefix(l, pp.prefix) {
			return pp.provider
		}
	}
	return r.fallback
}

// pick never returns nil while at least one provider is configured.
func (r *Router) pick(model string) adapter.AIServiceAdapter {
	if a := r.providers[r.providerFor(model)]; a != nil {
		return a
	}
	if a := r.providers[r.fallback]; a != nil {
		return a
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if a := r.providers[name]; a != nil {
			return a
		}
	}
	return nil
}

// ListModels merges the pinned models with every provider's list. It fails only
// when no provider answered.
func (r *Router) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; name != "" && !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for model := range r.routes {
		add(model)
	}

	var errs []error
	answered := false
	for _, a := range r.providers {
		list, err := a.ListModels(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		answered = true
		for _, name := range list {
			add(name)
		}
	}
	if !answered {
		if len(errs) == 0 {
			return nil, domain.NonRetryable(errNoProvider)
		}
		return nil, errors.Join(errs...)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Router) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	a := r.pick(model)
	if a == nil {
		return "", domain.NonRetryable(errNoProvider)
	}
	return a.Chat(ctx, model, messages)
}

func (r *Router) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	a := r.pick(model)
	if a == nil {
		return "", adapter.Usage{}, domain.NonRetryable(errNoProvider)
	}
	return a.ChatWithUsage(ctx, model, messages)
}

package generator

import (
	"context"

	"moralsim/domain/core"
	"moralsim/domain/dataset"
	"moralsim/domain/pattern"
	"moralsim/domain/scenario"
	"moralsim/internal"
	"moralsim/internal/analysis"
	apperrors "moralsim/internal/errors"
	"moralsim/ports"
)

// DefaultPromptSampleRows is how many dataset rows a provider sees as examples
const DefaultPromptSampleRows = 5

// RowSampler hands out example rows for provider prompts
type RowSampler interface {
	SampleRows(n int) []dataset.Row
}

// Request describes one scenario instantiation
type Request struct {
	Template scenario.TemplateID
	Rule     scenario.Rule
	Scores   *pattern.Scores
	Position int
	Total    int
}

// Generator turns a template id into a concrete scenario with truthful
// option metadata. An optional provider may rewrite the wording.
type Generator struct {
	rng        ports.RNGPort
	provider   ports.ScenarioProvider
	fallback   bool
	rows       RowSampler
	sampleRows int
	logger     *internal.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithProvider enables narrative rewriting. With fallback set, provider
// failures fall back to catalog text instead of failing the generation.
func WithProvider(p ports.ScenarioProvider, fallback bool) Option {
	return func(g *Generator) {
		g.provider = p
		g.fallback = fallback
	}
}

// WithRowSampler supplies dataset rows to include in provider prompts
func WithRowSampler(rs RowSampler, n int) Option {
	return func(g *Generator) {
		g.rows = rs
		if n > 0 {
			g.sampleRows = n
		}
	}
}

// WithLogger overrides the default logger
func WithLogger(l *internal.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a generator drawing parameters from rng
func New(rng ports.RNGPort, opts ...Option) *Generator {
	if rng == nil {
		rng = NewUnseededRand()
	}
	g := &Generator{
		rng:        rng,
		sampleRows: DefaultPromptSampleRows,
		logger:     internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasProvider reports whether narrative rewriting is enabled
func (g *Generator) HasProvider() bool { return g.provider != nil }

// Generate instantiates a template. scores may be nil (no history yet).
func (g *Generator) Generate(ctx context.Context, id scenario.TemplateID, scores *pattern.Scores) (*scenario.Scenario, error) {
	return g.Instantiate(ctx, Request{Template: id, Scores: scores})
}

// Instantiate draws params, renders the template and optionally rewrites it.
// Unknown templates are an error, never substituted.
func (g *Generator) Instantiate(ctx context.Context, req Request) (*scenario.Scenario, error) {
	tpl, err := scenario.Lookup(req.Template)
	if err != nil {
		return nil, apperrors.TemplateNotFound(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	challenged := tpl.Challenges != "" && req.Scores.Dominant() == tpl.Challenges
	sc := tpl.Build(drawParams(tpl, g.rng, challenged))
	sc.Rule = req.Rule
	if challenged {
		sc.Challenges = tpl.Challenges
	}

	g.logger.Debug("[Generator] rendered %s (%s) params: %s", tpl.ID, req.Rule, sc.Params)

	if g.provider == nil {
		return sc, nil
	}
	return g.rewrite(ctx, tpl, sc, req)
}

func (g *Generator) rewrite(ctx context.Context, tpl *scenario.Template, draft *scenario.Scenario, req Request) (*scenario.Scenario, error) {
	preq := ports.ScenarioRequest{
		Template:    tpl.ID,
		Title:       tpl.Title,
		Draft:       draft,
		Params:      draft.Params,
		Summary:     analysis.Summarize(req.Scores),
		Position:    req.Position,
		Total:       req.Total,
		Challenging: draft.Challenges,
	}
	if g.rows != nil {
		preq.SampleRows = g.rows.SampleRows(g.sampleRows)
	}

	text, err := g.provider.Rewrite(ctx, preq)
	if err == nil {
		err = validateText(text, draft, tpl)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if g.fallback {
			g.logger.Warn("[Generator] provider %s failed for %s, using catalog text: %v", g.provider.Name(), tpl.ID, err)
			return draft, nil
		}
		g.logger.Error("[Generator] provider %s failed for %s: %v", g.provider.Name(), tpl.ID, err)
		return nil, apperrors.ProviderError(g.provider.Name(), core.NewProviderError(g.provider.Name(), err))
	}

	applyText(draft, text)
	g.logger.Debug("[Generator] provider %s rewrote %s", g.provider.Name(), tpl.ID)
	return draft, nil
}

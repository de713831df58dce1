// Package dexpi extracts process-graph structure from P&ID interchange
// documents. Extraction degrades through an ordered strategy chain: a
// pluggable preferred loader, the structured DEXPI vocabulary, then two
// capped generic fallbacks for documents that follow no known schema.
package dexpi

import (
	"log/slog"

	"github.com/aditinnerkar/veilix-app/graph"
)

// Result is one strategy's output before graph assembly.
type Result struct {
	Components []graph.Node
	Flows      []graph.Edge
}

// Strategy is one tier of the extraction chain. A tier fails by returning
// an error or an empty component list; either advances the chain.
type Strategy interface {
	Name() string
	Extract(d *Document) (Result, error)
}

// Option configures extraction.
type Option func(*options)

type options struct {
	loader     Loader
	classifier Classifier
}

// WithLoader installs a preferred model loader as the first chain tier.
func WithLoader(l Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithClassifier replaces the default classification policy.
func WithClassifier(c Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// Extract parses data and runs the strategy chain over it. The first tier
// that yields at least one component wins; an exhausted chain yields a
// valid empty graph. Synthetic id counters are scoped to this call.
func Extract(data []byte, opts ...Option) (*graph.Graph, error) {
	o := options{classifier: DefaultClassifier()}
	for _, opt := range opts {
		opt(&o)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, err
	}

	res := runChain(d, chain(o, data))
	return graph.Build(res.Components, res.Flows), nil
}

// chain returns the ordered strategy list for one extraction call.
func chain(o options, data []byte) []Strategy {
	var tiers []Strategy
	if o.loader != nil {
		tiers = append(tiers, loaderStrategy{loader: o.loader, data: data})
	}
	return append(tiers,
		structuredStrategy{classifier: o.classifier},
		componentOnlyStrategy{classifier: o.classifier},
		wholeGraphStrategy{classifier: o.classifier},
	)
}

// runChain tries each strategy in order and returns the first result with
// at least one component.
func runChain(d *Document, tiers []Strategy) Result {
	for _, s := range tiers {
		res, err := s.Extract(d)
		if err != nil {
			slog.Debug("dexpi: extraction strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if len(res.Components) == 0 {
			slog.Debug("dexpi: extraction strategy found no components", "strategy", s.Name())
			continue
		}
		slog.Info("dexpi: extracted components", "strategy", s.Name(),
			"components", len(res.Components), "flows", len(res.Flows))
		return res
	}
	slog.Warn("dexpi: no strategy produced components, returning empty graph")
	return Result{}
}

package dexpi

import (
	"errors"
	"fmt"

	"github.com/aditinnerkar/veilix-app/graph"
)

// ErrLoaderUnavailable marks a loader tier that could not serve. The chain
// recovers by advancing; it is never surfaced to callers.
var ErrLoaderUnavailable = errors.New("dexpi: loader unavailable")

// Loader turns raw document bytes into a preferred object model and
// extracts components and flows from it. Either call may fail; extraction
// then falls back to the built-in strategies.
type Loader interface {
	Load(data []byte) (any, error)
	Extract(model any) ([]graph.Node, []graph.Edge, error)
}

// loaderStrategy adapts a Loader into the first chain tier. It works from
// the raw bytes, not the parsed tree, so loaders may use their own parser.
type loaderStrategy struct {
	loader Loader
	data   []byte
}

func (s loaderStrategy) Name() string { return "loader" }

func (s loaderStrategy) Extract(_ *Document) (Result, error) {
	model, err := s.loader.Load(s.data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: loading model: %v", ErrLoaderUnavailable, err)
	}
	nodes, edges, err := s.loader.Extract(model)
	if err != nil {
		return Result{}, fmt.Errorf("%w: extracting from model: %v", ErrLoaderUnavailable, err)
	}
	return Result{Components: nodes, Flows: edges}, nil
}

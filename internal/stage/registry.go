package stage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/interview"
)

// Registry maintains the stage definitions keyed by stage number. Stage
// dispatch goes through the registry so every stage is statically declared.
type Registry struct {
	mu   sync.RWMutex
	defs map[int]Definition
}

// NewRegistry returns a registry populated with the five built-in stages.
func NewRegistry() *Registry {
	r := &Registry{defs: map[int]Definition{}}
	for _, def := range builtinDefinitions() {
		r.mustRegister(def)
	}
	return r
}

func (r *Registry) mustRegister(def Definition) {
	if err := r.register(def); err != nil {
		panic(err)
	}
}

func (r *Registry) register(def Definition) error {
	if def.Number < 1 {
		return fmt.Errorf("stage: invalid number %d", def.Number)
	}
	if def.New == nil || def.Fold == nil {
		return fmt.Errorf("stage %d: New and Fold are required", def.Number)
	}
	if len(def.Groups) == 0 {
		return fmt.Errorf("stage %d: at least one question group is required", def.Number)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Number]; exists {
		return fmt.Errorf("stage %d: already registered", def.Number)
	}
	r.defs[def.Number] = def
	return nil
}

// Definition returns the declaration for the given stage.
func (r *Registry) Definition(number int) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[number]
	if !ok {
		return Definition{}, fmt.Errorf("stage: unknown stage %d", number)
	}
	return def, nil
}

// Runner constructs a runner for the given stage.
func (r *Registry) Runner(
	number int,
	engine *interview.Engine,
	sessionID string,
	maxAttempts int,
	prior map[int]charter.Deliverable,
	transcript TranscriptSink,
) (*Runner, error) {
	def, err := r.Definition(number)
	if err != nil {
		return nil, err
	}
	return NewRunner(def, engine, sessionID, maxAttempts, prior, transcript), nil
}

// Numbers returns the registered stage numbers in order.
func (r *Registry) Numbers() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	numbers := make([]int, 0, len(r.defs))
	for n := range r.defs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

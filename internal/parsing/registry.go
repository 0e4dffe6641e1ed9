package parsing

import (
	"fmt"
	"sort"

	"RfpIntel/internal/ports"
)

// Registry keeps a mapping from parsing modes to parser implementations.
type Registry struct {
	parsers map[string]ports.Parser
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: map[string]ports.Parser{}}
}

// Register adds or replaces a parser under its Name.
func (r *Registry) Register(parser ports.Parser) {
	if r.parsers == nil {
		r.parsers = map[string]ports.Parser{}
	}
	r.parsers[parser.Name()] = parser
}

// Resolve returns a parser by mode or an error if it is absent.
func (r *Registry) Resolve(mode string) (ports.Parser, error) {
	if parser, ok := r.parsers[mode]; ok {
		return parser, nil
	}
	return nil, fmt.Errorf("parsing mode %q is not registered (have %v)", mode, r.Modes())
}

// Modes lists registered modes in name order.
func (r *Registry) Modes() []string {
	modes := make([]string, 0, len(r.parsers))
	for mode := range r.parsers {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

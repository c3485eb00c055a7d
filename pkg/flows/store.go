package flows

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-authflow/pkg/model"
)

// Well-known flow identifiers shipped in the embedded definitions.
const (
	FlowLogin         = "login"
	FlowRegister      = "register"
	FlowResetPassword = "reset-password"

	DefaultFallbackFlow = FlowLogin
)

// ErrUnknownFlow is returned when a flow id is not present in the store.
var ErrUnknownFlow = errors.New("flows: unknown flow")

// Store keeps parsed flow definitions. It is safe for concurrent readers when
// treated as immutable after LoadFS.
type Store struct {
	flows    map[string]model.FlowDefinition
	fallback string
}

func newStore(fallback string) *Store {
	return &Store{
		flows:    make(map[string]model.FlowDefinition),
		fallback: fallback,
	}
}

func (s *Store) put(flow model.FlowDefinition) {
	s.flows[flow.ID] = flow
}

// Empty reports whether the store holds no flows.
func (s *Store) Empty() bool {
	return s == nil || len(s.flows) == 0
}

// Flow returns the definition for id.
func (s *Store) Flow(id string) (model.FlowDefinition, bool) {
	if s == nil {
		return model.FlowDefinition{}, false
	}
	flow, ok := s.flows[strings.TrimSpace(id)]
	return flow, ok
}

// MustFlow returns the definition for id or ErrUnknownFlow.
func (s *Store) MustFlow(id string) (model.FlowDefinition, error) {
	flow, ok := s.Flow(id)
	if !ok {
		return model.FlowDefinition{}, fmt.Errorf("%w: %q", ErrUnknownFlow, id)
	}
	return flow, nil
}

// IDs lists flow ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.flows))
	for id := range s.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve maps a route path to a flow. The flow with the longest route that
// prefixes path wins; anything else, including "/", resolves to the fallback
// flow. ok is false only when the fallback flow is missing too.
func (s *Store) Resolve(path string) (model.FlowDefinition, bool) {
	if s == nil {
		return model.FlowDefinition{}, false
	}
	clean := strings.ToLower(strings.TrimSpace(path))

	var best model.FlowDefinition
	for _, flow := range s.flows {
		if flow.Route == "" || !routeMatches(clean, flow.Route) {
			continue
		}
		if len(flow.Route) > len(best.Route) {
			best = flow
		}
	}
	if best.ID != "" {
		return best, true
	}
	return s.Flow(s.fallback)
}

func routeMatches(path, route string) bool {
	if !strings.HasPrefix(path, route) {
		return false
	}
	rest := path[len(route):]
	return rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?") || strings.HasPrefix(rest, "#")
}

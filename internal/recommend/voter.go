package recommend

import "context"

// Vote is one (weight, plugin_id) pair a voter task produces, per spec
// §4.6's "Voter interface": "get_votes(context, timeout) -> task |
// list[task] | None, where a 'task' is an asynchronous unit producing
// either a single (weight, plugin_id) or a sequence of such pairs."
type Vote struct {
	PluginID uint
	Weight   float64
}

// Task is one asynchronous unit of vote production, the Go analogue of the
// original's Celery-task-returning-a-list-of-tuples shape.
type Task func(ctx context.Context) ([]Vote, error)

// Voter is a pluggable recommendation producer. Implementations are
// registered once at startup by passing them to NewRegistry (spec §9: "Global registries ...
// reimplement as static tables built during initialization").
type Voter interface {
	// Name is the stable voter name used to look up its configured weight
	// (spec §6's PLUGIN_RECOMMENDER_WEIGHTS).
	Name() string
	// GetVotes returns zero or more tasks to run against ctx, given the
	// gathered recommendation context.
	GetVotes(ctx context.Context, rc *Context) ([]Task, error)
}

// Registry is an explicit, immutable-after-construction list of voters,
// replacing the original's `__init_subclass__` auto-registration with a
// table built once during startup (spec §9).
type Registry struct {
	voters []Voter
}

// NewRegistry builds a Registry from the given voters, in order.
func NewRegistry(voters ...Voter) *Registry {
	return &Registry{voters: voters}
}

// Voters returns the registered voters.
func (r *Registry) Voters() []Voter { return r.voters }

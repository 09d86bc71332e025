package pipeline

import (
	"container/heap"
	"text/template"

	"go-research-pipeline/internal/model"
)

// Registry is the process-wide, read-only set of capabilities.
// It is validated once at construction and never mutated afterwards.
type Registry struct {
	caps  []model.Capability
	index map[string]int
	tmpls map[string]*template.Template
}

// NewRegistry validates the capability graph and returns a registry that
// preserves the declaration order of caps.
func NewRegistry(caps ...model.Capability) (*Registry, error) {
	r := &Registry{
		caps:  make([]model.Capability, 0, len(caps)),
		index: make(map[string]int, len(caps)),
		tmpls: make(map[string]*template.Template, len(caps)),
	}

	for _, c := range caps {
		if c.ID == "" {
			return nil, configf("capability with empty id")
		}
		if _, dup := r.index[c.ID]; dup {
			return nil, configf("duplicate capability %q", c.ID)
		}
		c.DependsOn = append([]string(nil), c.DependsOn...)
		r.index[c.ID] = len(r.caps)
		r.caps = append(r.caps, c)
	}

	for _, c := range r.caps {
		for _, dep := range c.DependsOn {
			di, ok := r.index[dep]
			if !ok {
				return nil, configf("capability %q depends on undefined capability %q", c.ID, dep)
			}
			if dep == c.ID {
				return nil, cycleError([]string{c.ID, c.ID})
			}
			if c.Mandatory && !r.caps[di].Mandatory {
				return nil, configf("mandatory capability %q cannot depend on optional capability %q", c.ID, dep)
			}
		}
		t, err := parsePrompt(c)
		if err != nil {
			return nil, configf("capability %q: %v", c.ID, err)
		}
		r.tmpls[c.ID] = t
	}

	all := make([]int, len(r.caps))
	for i := range all {
		all[i] = i
	}
	if err := r.validateAcyclic(all); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns every capability in declaration order.
func (r *Registry) List() []model.Capability {
	out := make([]model.Capability, len(r.caps))
	copy(out, r.caps)
	return out
}

// Get looks up a capability by id.
func (r *Registry) Get(id string) (model.Capability, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.Capability{}, false
	}
	return r.caps[i], true
}

// Mandatory returns the always-included capabilities in their fixed order.
func (r *Registry) Mandatory() []model.Capability {
	var out []model.Capability
	for _, c := range r.caps {
		if c.Mandatory {
			out = append(out, c)
		}
	}
	return out
}

// Optional returns the selectable capabilities in declaration order.
func (r *Registry) Optional() []model.Capability {
	var out []model.Capability
	for _, c := range r.caps {
		if !c.Mandatory {
			out = append(out, c)
		}
	}
	return out
}

// Defaults returns the ids of optional capabilities enabled by default.
func (r *Registry) Defaults() []string {
	var out []string
	for _, c := range r.caps {
		if !c.Mandatory && c.EnabledByDefault {
			out = append(out, c.ID)
		}
	}
	return out
}

// Labels maps capability id to role label.
func (r *Registry) Labels() map[string]string {
	out := make(map[string]string, len(r.caps))
	for _, c := range r.caps {
		out[c.ID] = c.Label
	}
	return out
}

// rankOf orders mandatory capabilities before optional ones, then by declaration.
func (r *Registry) rankOf(i int) int {
	if r.caps[i].Mandatory {
		return i
	}
	return len(r.caps) + i
}

type rankHeap struct {
	items []int
	rank  func(int) int
}

func (h rankHeap) Len() int           { return len(h.items) }
func (h rankHeap) Less(i, j int) bool { return h.rank(h.items[i]) < h.rank(h.items[j]) }
func (h rankHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *rankHeap) Push(x any)        { h.items = append(h.items, x.(int)) }
func (h *rankHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// topoOrder returns a deterministic topological ordering of the selected
// capability indices using Kahn's algorithm. Ties are broken by rankOf.
// The result is shorter than selected when the selection contains a cycle.
func (r *Registry) topoOrder(selected []int) []int {
	in := make(map[int]bool, len(selected))
	for _, i := range selected {
		in[i] = true
	}

	indeg := make(map[int]int, len(selected))
	outgoing := make(map[int][]int, len(selected))
	for _, i := range selected {
		for _, dep := range r.caps[i].DependsOn {
			di := r.index[dep]
			if !in[di] {
				continue
			}
			indeg[i]++
			outgoing[di] = append(outgoing[di], i)
		}
	}

	ready := &rankHeap{rank: r.rankOf}
	for _, i := range selected {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(selected))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

func (r *Registry) validateAcyclic(selected []int) error {
	if len(r.topoOrder(selected)) == len(selected) {
		return nil
	}
	return cycleError(r.findCycle(selected))
}

// findCycle walks dependency edges depth-first in declaration order and
// returns one stable cycle witness, e.g. [a b c a].
func (r *Registry) findCycle(selected []int) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	in := make(map[int]bool, len(selected))
	for _, i := range selected {
		in[i] = true
	}
	color := make(map[int]int, len(selected))
	var stack []int
	var cycle []int

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		stack = append(stack, u)
		for _, dep := range r.caps[u].DependsOn {
			v := r.index[dep]
			if !in[v] {
				continue
			}
			switch color[v] {
			case white:
				if dfs(v) {
					return true
				}
			case gray:
				for k := len(stack) - 1; k >= 0; k-- {
					if stack[k] == v {
						cycle = append(cycle, stack[k:]...)
						cycle = append(cycle, v)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[u] = black
		return false
	}

	for _, i := range selected {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for _, i := range cycle {
		out = append(out, r.caps[i].ID)
	}
	return out
}

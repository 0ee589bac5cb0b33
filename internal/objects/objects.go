// Package objects tracks the resource objects of a level: food piles and
// storage chambers. Every object emits its channel's pheromone from the node
// it sits on, and ants exchange goods with it when they reach that node.
package objects

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/pheromone"
)

var (
	ErrOccupied = errors.New("objects: node already holds an object")
	ErrNoObject = errors.New("objects: no object at node")
)

// Object is a resource placed on a navigation node. A nil Quantity means
// the object never runs out.
type Object struct {
	Node          navmesh.NodeID    `json:"-"`
	Index         int               `json:"node"`
	Channel       pheromone.Channel `json:"channel"`
	Quantity      *float32          `json:"quantity"`
	Concentration float32           `json:"concentration"`
}

// Finite returns a quantity for an object that can run out.
func Finite(q float32) *float32 { return &q }

// Take removes up to n from the object, never going below zero.
func (o *Object) Take(n float32) {
	if o.Quantity != nil {
		*o.Quantity = max(*o.Quantity-n, 0)
	}
}

// Put adds n to the object. Inexhaustible objects are unchanged.
func (o *Object) Put(n float32) {
	if o.Quantity != nil {
		*o.Quantity += n
	}
}

// Exhausted reports whether a limited object has nothing left.
func (o *Object) Exhausted() bool {
	return o.Quantity != nil && *o.Quantity <= 0
}

func (o Object) clone() Object {
	if o.Quantity != nil {
		o.Quantity = Finite(*o.Quantity)
	}
	return o
}

type entry struct {
	mu       sync.Mutex
	obj      Object
	emitting bool
}

// Registry holds the objects of a level keyed by node. Lookups take the
// registry lock; mutations of one object take that object's lock so ants
// reaching different objects do not contend.
type Registry struct {
	mu     sync.RWMutex
	field  *pheromone.Field
	byNode map[int]*entry
}

// NewRegistry creates an empty registry whose objects emit into field.
func NewRegistry(field *pheromone.Field) *Registry {
	return &Registry{field: field, byNode: make(map[int]*entry)}
}

// Add places obj on its node and starts its pheromone source.
func (r *Registry) Add(obj Object) error {
	i, err := r.field.Graph().Index(obj.Node)
	if err != nil {
		return err
	}
	obj.Index = i
	obj = obj.clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNode[i]; ok {
		return fmt.Errorf("%w: %s", ErrOccupied, obj.Node)
	}
	e := &entry{obj: obj}
	if !obj.Exhausted() || obj.Channel != pheromone.Food {
		if err := r.field.AddSource(obj.Node, obj.Channel, obj.Concentration); err != nil {
			return fmt.Errorf("register source: %w", err)
		}
		e.emitting = true
	}
	r.byNode[i] = e
	return nil
}

// Remove deletes the object at node and its pheromone source.
func (r *Registry) Remove(node navmesh.NodeID) (Object, error) {
	i, err := r.field.Graph().Index(node)
	if err != nil {
		return Object{}, err
	}
	r.mu.Lock()
	e, ok := r.byNode[i]
	delete(r.byNode, i)
	r.mu.Unlock()
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNoObject, node)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.emitting {
		e.emitting = false
		if err := r.field.SubSource(node, e.obj.Channel, e.obj.Concentration); err != nil {
			return e.obj.clone(), err
		}
	}
	return e.obj.clone(), nil
}

// Get returns a copy of the object at node.
func (r *Registry) Get(node navmesh.NodeID) (Object, bool) {
	e := r.lookup(node)
	if e == nil {
		return Object{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.obj.clone(), true
}

func (r *Registry) lookup(node navmesh.NodeID) *entry {
	i, err := r.field.Graph().Index(node)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byNode[i]
}

// Reach runs fn on the object at node while holding its lock, reporting
// whether an object was there. Food that fn leaves exhausted stops
// emitting.
func (r *Registry) Reach(node navmesh.NodeID, fn func(*Object)) (bool, error) {
	e := r.lookup(node)
	if e == nil {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.obj)

	if e.emitting && e.obj.Channel == pheromone.Food && e.obj.Exhausted() {
		e.emitting = false
		if err := r.field.SubSource(e.obj.Node, e.obj.Channel, e.obj.Concentration); err != nil {
			return true, fmt.Errorf("silence exhausted food: %w", err)
		}
	}
	return true, nil
}

// Len returns the number of objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNode)
}

// All returns copies of every object ordered by node index.
func (r *Registry) All() []Object {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byNode))
	for _, e := range r.byNode {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.obj.clone())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Totals sums the finite quantities per channel.
func (r *Registry) Totals() map[pheromone.Channel]float32 {
	totals := make(map[pheromone.Channel]float32)
	for _, o := range r.All() {
		if o.Quantity != nil {
			totals[o.Channel] += *o.Quantity
		}
	}
	return totals
}

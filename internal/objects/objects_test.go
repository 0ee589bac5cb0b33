package objects

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/pheromone"
	"github.com/talgya/mini-colony/internal/world"
)

func newField(t *testing.T) *pheromone.Field {
	t.Helper()
	grid, err := world.ParseRows([]string{
		"#####",
		"#...#",
		"#...#",
		"#####",
	}, 16)
	require.NoError(t, err)
	g, err := navmesh.Build(grid)
	require.NoError(t, err)
	f, err := pheromone.NewField(g, pheromone.DefaultParams())
	require.NoError(t, err)
	return f
}

func node(t *testing.T, f *pheromone.Field, x, y int) navmesh.NodeID {
	t.Helper()
	id, ok := f.Graph().LUT().Node(world.Coord{X: x, Y: y})
	require.True(t, ok)
	return id
}

func TestAddRegistersSource(t *testing.T) {
	f := newField(t)
	r := NewRegistry(f)
	food := node(t, f, 1, 1)
	store := node(t, f, 3, 2)

	require.NoError(t, r.Add(Object{Node: food, Channel: pheromone.Food, Quantity: Finite(5), Concentration: 20}))
	require.NoError(t, r.Add(Object{Node: store, Channel: pheromone.Storage, Concentration: 10}))
	assert.ErrorIs(t, r.Add(Object{Node: food, Channel: pheromone.Storage}), ErrOccupied)
	assert.Equal(t, 2, r.Len())

	src, ok := f.Source(food)
	require.True(t, ok)
	assert.Equal(t, float32(20), src[pheromone.Food])
	src, ok = f.Source(store)
	require.True(t, ok)
	assert.Equal(t, float32(10), src[pheromone.Storage])

	all := r.All()
	require.Len(t, all, 2)
	assert.Less(t, all[0].Index, all[1].Index)
}

func TestReachExhaustsFood(t *testing.T) {
	f := newField(t)
	r := NewRegistry(f)
	food := node(t, f, 2, 1)
	require.NoError(t, r.Add(Object{Node: food, Channel: pheromone.Food, Quantity: Finite(2), Concentration: 20}))

	ok, err := r.Reach(node(t, f, 1, 1), func(*Object) { t.Fatal("no object there") })
	require.NoError(t, err)
	assert.False(t, ok)

	take := func(o *Object) { o.Take(1) }
	ok, err = r.Reach(food, take)
	require.NoError(t, err)
	assert.True(t, ok)
	_, emitting := f.Source(food)
	assert.True(t, emitting)

	_, err = r.Reach(food, take)
	require.NoError(t, err)
	_, emitting = f.Source(food)
	assert.False(t, emitting)

	o, ok := r.Get(food)
	require.True(t, ok)
	assert.True(t, o.Exhausted())

	// Removing a silent object leaves the field alone.
	_, err = r.Remove(food)
	require.NoError(t, err)
	assert.Equal(t, 0, f.SourceCount())
}

func TestGetReturnsCopy(t *testing.T) {
	f := newField(t)
	r := NewRegistry(f)
	id := node(t, f, 1, 2)
	q := Finite(3)
	require.NoError(t, r.Add(Object{Node: id, Channel: pheromone.Storage, Quantity: q}))

	*q = 100
	o, _ := r.Get(id)
	assert.Equal(t, float32(3), *o.Quantity)
	*o.Quantity = 50
	o, _ = r.Get(id)
	assert.Equal(t, float32(3), *o.Quantity)
}

func TestRemove(t *testing.T) {
	f := newField(t)
	r := NewRegistry(f)
	id := node(t, f, 1, 2)
	require.NoError(t, r.Add(Object{Node: id, Channel: pheromone.Storage, Concentration: 7}))

	o, err := r.Remove(id)
	require.NoError(t, err)
	assert.Equal(t, pheromone.Storage, o.Channel)
	_, ok := f.Source(id)
	assert.False(t, ok)

	_, err = r.Remove(id)
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestConcurrentReach(t *testing.T) {
	f := newField(t)
	r := NewRegistry(f)
	id := node(t, f, 3, 1)
	require.NoError(t, r.Add(Object{Node: id, Channel: pheromone.Storage, Quantity: Finite(0)}))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = r.Reach(id, func(o *Object) { o.Put(1) })
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, float32(800), r.Totals()[pheromone.Storage])
}

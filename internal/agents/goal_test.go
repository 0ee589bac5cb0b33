package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/objects"
	"github.com/talgya/mini-colony/internal/pheromone"
)

func TestJobCycle(t *testing.T) {
	cases := []struct {
		job     Job
		follows pheromone.Channel
		next    Job
	}{
		{JobFood, pheromone.Food, JobStorage},
		{JobStorage, pheromone.Storage, JobFood},
		{JobThief, pheromone.Storage, JobOffering},
		{JobOffering, pheromone.Zombqueen, JobThief},
	}
	for _, c := range cases {
		t.Run(c.job.String(), func(t *testing.T) {
			assert.Equal(t, c.follows, c.job.Follows())
			assert.Equal(t, c.next, c.job.Next())
		})
	}
}

func TestWorkerRoundTrip(t *testing.T) {
	food := &objects.Object{Channel: pheromone.Food, Quantity: objects.Finite(2), Concentration: 20}
	storage := &objects.Object{Channel: pheromone.Storage, Concentration: 20}
	a := &Ant{Kind: KindWorker, Direction: mathx.V3(1, 2, 0), Goal: Goal{Job: JobFood}}

	// Wrong object for the job.
	assert.False(t, ReachedObject(a, storage))
	assert.Equal(t, JobFood, a.Goal.Job)

	require.True(t, ReachedObject(a, food))
	assert.Equal(t, Goal{Job: JobStorage, Holds: 1}, a.Goal)
	assert.Equal(t, mathx.V3(-1, -2, 0), a.Direction)
	assert.Equal(t, float32(1), *food.Quantity)

	require.True(t, ReachedObject(a, storage))
	assert.Equal(t, Goal{Job: JobFood, Holds: 0}, a.Goal)
	assert.Equal(t, mathx.V3(1, 2, 0), a.Direction)
	require.NotNil(t, storage.Quantity)
	assert.Equal(t, float32(1), *storage.Quantity)
}

func TestExhaustedFoodDoesNotYield(t *testing.T) {
	food := &objects.Object{Channel: pheromone.Food, Quantity: objects.Finite(1)}
	a := &Ant{Kind: KindWorker, Goal: Goal{Job: JobFood}}
	require.True(t, ReachedObject(a, food))
	assert.True(t, food.Exhausted())

	b := &Ant{Kind: KindWorker, Goal: Goal{Job: JobFood}}
	assert.False(t, ReachedObject(b, food))
	assert.Equal(t, Goal{Job: JobFood}, b.Goal)

	// Inexhaustible food never runs out.
	endless := &objects.Object{Channel: pheromone.Food}
	for range 5 {
		b.Goal.Job = JobFood
		require.True(t, ReachedObject(b, endless))
	}
	assert.Nil(t, endless.Quantity)
}

func TestThiefCycle(t *testing.T) {
	storage := &objects.Object{Channel: pheromone.Storage, Quantity: objects.Finite(3)}
	queen := &Ant{Kind: KindQueen, Hoard: 1}
	z := &Ant{Kind: KindZombant, Direction: mathx.V3(0, 1, 0), Goal: Goal{Job: JobThief}}

	assert.False(t, ReachedQueen(z, queen))

	require.True(t, ReachedObject(z, storage))
	assert.Equal(t, Goal{Job: JobOffering, Holds: 2}, z.Goal)
	assert.Equal(t, float32(1), *storage.Quantity)

	assert.False(t, ReachedQueen(z, z))
	require.True(t, ReachedQueen(z, queen))
	assert.Equal(t, float32(3), queen.Hoard)
	assert.Equal(t, Goal{Job: JobThief}, z.Goal)
	assert.Equal(t, mathx.V3(0, 1, 0), z.Direction)

	// Storage floors at zero.
	require.True(t, ReachedObject(z, storage))
	assert.Equal(t, float32(0), *storage.Quantity)
	assert.Equal(t, float32(2), z.Goal.Holds)
}

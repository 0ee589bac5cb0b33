package agents

import (
	"github.com/talgya/mini-colony/internal/objects"
	"github.com/talgya/mini-colony/internal/pheromone"
)

// ReachedObject applies the job cycle when a stands on obj's node. It
// reports whether an exchange took place; mismatched pairs and exhausted
// food leave both sides untouched.
func ReachedObject(a *Ant, obj *objects.Object) bool {
	switch {
	case obj.Channel == pheromone.Food && a.Goal.Job == JobFood:
		if obj.Exhausted() {
			return false
		}
		obj.Take(1)
		a.Goal.Holds = 1
	case obj.Channel == pheromone.Storage && a.Goal.Job == JobStorage:
		if obj.Quantity == nil {
			// Storage starts counting at the first delivery.
			obj.Quantity = objects.Finite(0)
		}
		obj.Put(1)
		a.Goal.Holds = 0
	case obj.Channel == pheromone.Storage && a.Goal.Job == JobThief:
		obj.Take(2)
		a.Goal.Holds = 2
	default:
		return false
	}
	a.turnBack()
	return true
}

// ReachedQueen hands a zombant's loot to the queen.
func ReachedQueen(a, queen *Ant) bool {
	if a.Goal.Job != JobOffering || queen == nil || queen.Kind != KindQueen {
		return false
	}
	queen.Hoard += a.Goal.Holds
	a.Goal.Holds = 0
	a.turnBack()
	return true
}

func (a *Ant) turnBack() {
	a.Direction = a.Direction.Neg()
	a.Goal.Job = a.Goal.Job.Next()
}

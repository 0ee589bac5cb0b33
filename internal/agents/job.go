package agents

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/pheromone"
)

// Job is what an ant is currently looking for.
type Job uint8

const (
	JobFood     Job = iota // Worker heading for food
	JobStorage             // Worker carrying food home
	JobThief               // Zombant heading for the colony's storage
	JobOffering            // Zombant carrying loot to the queen
)

var jobNames = [...]string{"food", "storage", "thief", "offering"}

func (j Job) String() string {
	if int(j) < len(jobNames) {
		return jobNames[j]
	}
	return fmt.Sprintf("job(%d)", j)
}

func (j Job) MarshalText() ([]byte, error) { return []byte(j.String()), nil }

// Follows returns the pheromone channel the ant steers by.
func (j Job) Follows() pheromone.Channel {
	switch j {
	case JobFood:
		return pheromone.Food
	case JobOffering:
		return pheromone.Zombqueen
	default:
		return pheromone.Storage
	}
}

// Next returns the job taken up once this one is done.
func (j Job) Next() Job {
	switch j {
	case JobFood:
		return JobStorage
	case JobStorage:
		return JobFood
	case JobThief:
		return JobOffering
	default:
		return JobThief
	}
}

// Package pheromone holds the per-node scent field: concentrations,
// diffusion and evaporation, fixed-value sources, and the gradients ants
// steer by. Storage is struct-of-arrays, one dense slice per channel,
// indexed by navigation node.
package pheromone

import (
	"fmt"
	"strings"
)

// Channel is one independent scent signal.
type Channel uint8

const (
	Default   Channel = iota // Ambient trail
	Storage                  // Emitted by storage objects
	Food                     // Emitted by food objects
	Zombqueen                // Emitted by the queen
	Zombant                  // Left behind by zombants
	DeadAnt                  // Left behind by dead ants
)

// K is the number of channels.
const K = 6

// Channels lists every channel in index order.
var Channels = [K]Channel{Default, Storage, Food, Zombqueen, Zombant, DeadAnt}

var channelNames = [K]string{"default", "storage", "food", "zombqueen", "zombant", "dead_ant"}

func (c Channel) String() string {
	if int(c) < K {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// ParseChannel resolves a channel by name, ignoring case.
func ParseChannel(s string) (Channel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range channelNames {
		if s == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("pheromone: unknown channel %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Channel) UnmarshalText(b []byte) error {
	v, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Colors returns the debug palette (low, high) for c as hex strings.
func (c Channel) Colors() (low, high string) {
	switch c {
	case Default:
		return "#800080", "#ff00ff"
	case Storage:
		return "#0000ff", "#f0ffff"
	case Food:
		return "#006400", "#32cd32"
	case Zombqueen:
		return "#800000", "#dc143c"
	case Zombant:
		return "#f5f5dc", "#a9a9a9"
	case DeadAnt:
		return "#000000", "#808080"
	default:
		return "#000000", "#ffffff"
	}
}

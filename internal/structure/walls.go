package structure

import (
	"sort"

	"github.com/prathamj/optionsgate/pkg/models"
)

// Wall is a strike with concentrated open interest.
type Wall struct {
	Strike float64 `json:"strike"`
	OI     int64   `json:"oi"`
}

// ExpectedRange is the band between the nearest put and call walls.
type ExpectedRange struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Width float64 `json:"width"`
}

// OIWalls holds the open-interest support/resistance structure of a chain.
type OIWalls struct {
	CallWalls         []Wall        `json:"call_walls"`
	PutWalls          []Wall        `json:"put_walls"`
	NearestSupport    float64       `json:"nearest_support"`
	NearestResistance float64       `json:"nearest_resistance"`
	ExpectedRange     ExpectedRange `json:"expected_range"`
}

// wallCount caps how many walls are reported per side.
const wallCount = 3

// ComputeOIWalls ranks call and put strikes by open interest. The nearest
// call wall above spot acts as resistance, the nearest put wall below spot
// as support; together they bound the expected range.
func ComputeOIWalls(chain *models.OptionChain, spot float64) OIWalls {
	walls := OIWalls{
		CallWalls: topWalls(chain.Calls),
		PutWalls:  topWalls(chain.Puts),
	}

	// Nearest resistance: among call walls strictly above spot, the closest.
	// A wall sitting exactly at spot is neither side of the range.
	for _, w := range walls.CallWalls {
		if w.Strike <= spot {
			continue
		}
		if walls.NearestResistance == 0 || w.Strike < walls.NearestResistance {
			walls.NearestResistance = w.Strike
		}
	}
	// Nearest support: among put walls strictly below spot, the closest.
	for _, w := range walls.PutWalls {
		if w.Strike >= spot {
			continue
		}
		if walls.NearestSupport == 0 || w.Strike > walls.NearestSupport {
			walls.NearestSupport = w.Strike
		}
	}

	if walls.NearestSupport > 0 && walls.NearestResistance > 0 {
		walls.ExpectedRange = ExpectedRange{
			Low:   walls.NearestSupport,
			High:  walls.NearestResistance,
			Width: walls.NearestResistance - walls.NearestSupport,
		}
	}

	return walls
}

// topWalls aggregates OI per strike and returns the top strikes by OI.
func topWalls(contracts []models.OptionContract) []Wall {
	oiByStrike := map[float64]int64{}
	for _, c := range contracts {
		oiByStrike[c.Strike] += c.OpenInterest
	}

	walls := make([]Wall, 0, len(oiByStrike))
	for strike, oi := range oiByStrike {
		if oi > 0 {
			walls = append(walls, Wall{Strike: strike, OI: oi})
		}
	}

	sort.Slice(walls, func(i, j int) bool {
		if walls[i].OI != walls[j].OI {
			return walls[i].OI > walls[j].OI
		}
		return walls[i].Strike < walls[j].Strike
	})

	if len(walls) > wallCount {
		walls = walls[:wallCount]
	}
	return walls
}

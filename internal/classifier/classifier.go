// Package classifier maps a continuous risk score onto discrete risk levels.
package classifier

import "github.com/user/listing-risk-service/internal/entity"

// band is an inclusive lower bound: a score equal to the bound belongs to the
// band, which breaks ties toward the higher-severity level.
type band struct {
	lower float64
	level entity.RiskLevel
}

// bands are ordered highest severity first and scanned top-down.
var bands = []band{
	{80, entity.LevelCritical},
	{60, entity.LevelHigh},
	{40, entity.LevelMedium},
	{20, entity.LevelLow},
	{0, entity.LevelSafe},
}

// Classify maps a score to its risk level. Scores outside [0,100] are a
// caller bug; they are clamped rather than recovered from so the function
// stays total.
func Classify(score float64) entity.RiskLevel {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	for _, b := range bands {
		if score >= b.lower {
			return b.level
		}
	}
	return entity.LevelSafe
}

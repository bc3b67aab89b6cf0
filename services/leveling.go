package services

import "math"

// Leveling math. Pure functions, no I/O; callers guarantee non-negative
// inputs. Level n starts at (n-1)^2 * 100 XP, so the bands widen as you climb.

// BaseXPPerLevel scales the level curve.
const BaseXPPerLevel = 100

// Experience bonus tiers for quest rewards (strictly-greater cutoffs).
const (
	questXPMultiplier  = 10
	bigBountyCutoff    = 30
	bigBountyBonus     = 150
	mediumBountyCutoff = 15
	mediumBountyBonus  = 50
)

// CalculateLevel maps total experience to a level, starting at 1.
func CalculateLevel(experience int) int {
	return int(math.Floor(math.Sqrt(float64(experience)/BaseXPPerLevel))) + 1
}

// ExperienceForLevel returns the XP threshold where the given level begins.
func ExperienceForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * (level - 1) * BaseXPPerLevel
}

// ProgressToNextLevel returns the fraction [0,1) of the way through the
// current level band.
func ProgressToNextLevel(experience int) float64 {
	level := CalculateLevel(experience)
	floor := ExperienceForLevel(level)
	ceil := ExperienceForLevel(level + 1)
	return float64(experience-floor) / float64(ceil-floor)
}

// CalculateQuestExperience converts a quest bounty into an XP reward:
// bounty*10 plus a flat bonus for bigger bounties.
func CalculateQuestExperience(bounty int) int {
	xp := bounty * questXPMultiplier
	switch {
	case bounty > bigBountyCutoff:
		xp += bigBountyBonus
	case bounty > mediumBountyCutoff:
		xp += mediumBountyBonus
	}
	return xp
}

// CheckLevelUp reports whether moving from oldXP to newXP crosses a level
// boundary.
func CheckLevelUp(oldXP, newXP int) bool {
	return CalculateLevel(newXP) > CalculateLevel(oldXP)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		experience int
		want       int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
		{10000, 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateLevel(tt.experience), "experience=%d", tt.experience)
	}
}

func TestExperienceForLevelBracketsExperience(t *testing.T) {
	// The level thresholds form a staircase: every XP value sits inside the
	// band of its computed level.
	for e := 0; e <= 20000; e += 7 {
		level := CalculateLevel(e)
		require.LessOrEqual(t, ExperienceForLevel(level), e, "experience=%d", e)
		require.Greater(t, ExperienceForLevel(level+1), e, "experience=%d", e)
	}
}

func TestProgressToNextLevel(t *testing.T) {
	for e := 0; e <= 5000; e += 13 {
		p := ProgressToNextLevel(e)
		assert.GreaterOrEqual(t, p, 0.0, "experience=%d", e)
		assert.Less(t, p, 1.0, "experience=%d", e)
	}

	// Start of a band is exactly zero.
	assert.Zero(t, ProgressToNextLevel(ExperienceForLevel(3)))
}

func TestCalculateQuestExperience(t *testing.T) {
	tests := []struct {
		bounty int
		want   int
	}{
		{1, 10},
		{15, 150}, // at the cutoff: no bonus
		{16, 210}, // just over: +50
		{30, 350}, // at the cutoff: still mid tier
		{31, 460}, // just over: +150
		{500, 5150},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateQuestExperience(tt.bounty), "bounty=%d", tt.bounty)
	}
}

func TestCheckLevelUp(t *testing.T) {
	assert.True(t, CheckLevelUp(99, 100))
	assert.False(t, CheckLevelUp(100, 399))
	assert.False(t, CheckLevelUp(0, 99))
	assert.True(t, CheckLevelUp(0, 10000))
	assert.False(t, CheckLevelUp(100, 100))
}

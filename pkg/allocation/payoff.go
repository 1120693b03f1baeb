package allocation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLevel        = errors.New("contribution level out of range")
	ErrInvalidContribution = errors.New("contribution not in {0,2,4,6,8,10}")
	ErrInvalidRole         = errors.New("unknown player type")
	ErrInvalidConfig       = errors.New("invalid engine configuration")
)

// Role selects a player's cost profile.
type Role string

const (
	RoleLow  Role = "low"
	RoleHigh Role = "high"
)

// ParseRole converts a player type name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleLow, RoleHigh:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// CostMultiplier is the per-unit cost of a contribution for this role.
func (r Role) CostMultiplier() int {
	if r == RoleHigh {
		return 3
	}
	return 1
}

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleHigh {
		return RoleLow
	}
	return RoleHigh
}

func (r Role) valid() bool { return r == RoleLow || r == RoleHigh }

const (
	NumLevels       = 6
	MaxContribution = 10
	BonusThreshold  = 8
	Bonus           = 25

	// MaxJointPayoff is the largest achievable sum of both payoffs
	// (low contributes 8, high contributes 0).
	MaxJointPayoff = 42
)

// Levels lists the contribution amount for each level index.
var Levels = [NumLevels]int{0, 2, 4, 6, 8, 10}

// ValidateLevel reports whether level indexes Levels.
func ValidateLevel(level int) error {
	if level < 0 || level >= NumLevels {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return nil
}

// ContributionOf returns the contribution amount for a level index.
func ContributionOf(level int) (int, error) {
	if err := ValidateLevel(level); err != nil {
		return 0, err
	}
	return Levels[level], nil
}

// LevelOf returns the level index of a contribution amount.
func LevelOf(contribution int) (int, error) {
	if contribution < 0 || contribution > MaxContribution || contribution%2 != 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidContribution, contribution)
	}
	return contribution / 2, nil
}

// JointBonus is the shared bonus both players receive for a pair of contributions.
func JointBonus(a, b int) int {
	if a+b >= BonusThreshold {
		return Bonus
	}
	return 0
}

// Payoff is the objective payoff of a player in the given role.
func Payoff(role Role, own, other int) int {
	return JointBonus(own, other) - role.CostMultiplier()*own
}

// PayoffTable holds payoffs indexed by [own level][other level].
type PayoffTable [NumLevels][NumLevels]float64

var lowPayoffs = PayoffTable{
	{0, 0, 0, 0, 25, 25},
	{-2, -2, -2, 23, 23, 23},
	{-4, -4, 21, 21, 21, 21},
	{-6, 19, 19, 19, 19, 19},
	{17, 17, 17, 17, 17, 17},
	{15, 15, 15, 15, 15, 15},
}

// Contributions cost three times as much for the high type.
var highPayoffs = PayoffTable{
	{0, 0, 0, 0, 25, 25},
	{-6, -6, -6, 19, 19, 19},
	{-12, -12, 13, 13, 13, 13},
	{-18, 7, 7, 7, 7, 7},
	{1, 1, 1, 1, 1, 1},
	{-5, -5, -5, -5, -5, -5},
}

// PayoffTableFor returns a copy of the payoff table for role.
func PayoffTableFor(role Role) PayoffTable {
	if role == RoleHigh {
		return highPayoffs
	}
	return lowPayoffs
}

// Lookup returns the payoff for the given own and other level.
func (t *PayoffTable) Lookup(own, other int) float64 {
	return t[own][other]
}

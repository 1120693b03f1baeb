package allocation

// Observation is the 3-value view a learning driver feeds its policy:
// both last contributions scaled to [-0.5, 1.5] and the agent's kindness.
type Observation [3]float64

// InitialObservation is the observation before the first period.
func InitialObservation() Observation {
	return Observation{}
}

// Observation returns the training observation after this period.
func (o Outcome) Observation() Observation {
	return Observation{
		float64(o.ContributionHigh)/5 - 0.5,
		float64(o.ContributionLow)/5 - 0.5,
		o.Kindness,
	}
}

// OwnContribution is the agent's contribution this period.
func (o Outcome) OwnContribution() int {
	if o.Role == RoleHigh {
		return o.ContributionHigh
	}
	return o.ContributionLow
}

// OtherContribution is the other player's contribution this period.
func (o Outcome) OtherContribution() int {
	if o.Role == RoleHigh {
		return o.ContributionLow
	}
	return o.ContributionHigh
}

// PayoffHigh is the payoff of whoever played the high role.
func (o Outcome) PayoffHigh() float64 {
	if o.Role == RoleHigh {
		return o.OwnPayoff
	}
	return o.OtherPayoff
}

// PayoffLow is the payoff of whoever played the low role.
func (o Outcome) PayoffLow() float64 {
	if o.Role == RoleHigh {
		return o.OtherPayoff
	}
	return o.OwnPayoff
}

// JointPayoff is the sum of both players' payoffs.
func (o Outcome) JointPayoff() float64 {
	return o.OwnPayoff + o.OtherPayoff
}

// Efficiency is the joint payoff relative to the best achievable one.
func (o Outcome) Efficiency() float64 {
	return o.JointPayoff() / MaxJointPayoff
}

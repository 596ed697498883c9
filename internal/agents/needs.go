package agents

// UpdateNeeds applies one needs period: oxygen always drops, morale rises if
// the character relaxed since the last period and drops otherwise. All
// arithmetic saturates.
func (c *CharacterStatus) UpdateNeeds(relaxed bool) {
	c.Oxygen = subSat(c.Oxygen, c.OxygenDepletion)
	if relaxed {
		c.Morale = min(addSat(c.Morale, c.RelaxIncrement), MaxMorale)
	} else {
		c.Morale = subSat(c.Morale, c.MoraleDepletion)
	}
}

// Demoralized reports whether morale is at or below the threshold where a
// character stops taking on work.
func (c *CharacterStatus) Demoralized(t Tuning) bool {
	return c.Morale <= t.DemoralizedMorale
}

// Suffocating reports whether oxygen is low enough to interrupt other goals.
func (c *CharacterStatus) Suffocating(t Tuning) bool {
	return c.Oxygen <= t.LowOxygen
}

func subSat(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}

func addSat(a, b uint8) uint8 {
	if s := uint16(a) + uint16(b); s < 255 {
		return uint8(s)
	}
	return 255
}

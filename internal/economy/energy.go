package economy

import "time"

// Regen applies passive energy regeneration. The timestamp only moves by whole
// intervals so partial progress toward the next point is kept.
func (r Rules) Regen(energy int, updatedAt, now time.Time) (int, time.Time) {
	if energy >= r.EnergyMax {
		return r.EnergyMax, updatedAt
	}
	elapsed := now.Sub(updatedAt)
	if elapsed <= 0 || r.EnergyRegen <= 0 {
		return energy, updatedAt
	}
	steps := int(elapsed / r.EnergyRegen)
	if steps <= 0 {
		return energy, updatedAt
	}
	next := energy + steps
	if next > r.EnergyMax {
		next = r.EnergyMax
	}
	return next, updatedAt.Add(time.Duration(steps) * r.EnergyRegen)
}

package game

import (
	"math"
	"time"
)

const (
	MaxDifficulty = 60
	// Difficulty at which the green zone starts moving.
	MovingZoneFrom = 3

	MaxClientElapsed = 60 * time.Second
	// Client clock is trusted while it stays this close to the server clock.
	MaxDrift = 1800 * time.Millisecond
)

// Params describes one shot: the zone the player aims at and the marker speed.
type Params struct {
	Difficulty int     `json:"difficulty"`
	ZoneCenter float64 `json:"zoneCenter"`
	ZoneWidth  float64 `json:"zoneWidth"`
	Speed      float64 `json:"speed"`
	ZoneMoves  bool    `json:"zoneMoves"`
	ZonePhase  float64 `json:"zonePhase"`
}

// Outcome is the server's judgement of a fired shot.
type Outcome struct {
	Pos        float64
	ZoneCenter float64
	Hit        bool
}

// PingPong folds x into [0,1] as a triangle wave with period 2.
func PingPong(x float64) float64 {
	m := math.Mod(x, 2)
	if m < 0 {
		m += 2
	}
	if m <= 1 {
		return m
	}
	return 2 - m
}

// PositionAt is the marker position after elapsed time.
func PositionAt(elapsed time.Duration, speed float64) float64 {
	return PingPong(elapsed.Seconds() * speed)
}

// ZoneCenterAt is the center of a moving zone after elapsed time.
func ZoneCenterAt(elapsed time.Duration, width, speed, phase float64) float64 {
	lo, span := zoneRange(width)
	return lo + PingPong(elapsed.Seconds()*speed+phase)*span
}

// IsHit reports whether pos lies inside the zone, edges included.
func IsHit(pos, center, width float64) bool {
	half := width / 2
	return pos >= center-half && pos <= center+half
}

// DifficultyToParams builds shot parameters for a streak of d hits. All
// randomness comes from rnd: one draw places the zone, a second picks the
// direction of a moving zone.
func DifficultyToParams(d int, rnd Rand) Params {
	d = clampInt(d, 0, MaxDifficulty)
	width := clamp(0.28-0.012*float64(d), 0.08, 0.32)
	speed := clamp(0.55+0.045*float64(d), 0.50, 1.80)

	lo, span := zoneRange(width)
	center := lo + rnd.Float64()*span

	p := Params{
		Difficulty: d,
		ZoneCenter: center,
		ZoneWidth:  width,
		Speed:      speed,
	}
	if d < MovingZoneFrom {
		return p
	}

	p0 := 0.5
	if span > 0 {
		p0 = clamp((center-lo)/span, 0, 1)
	}
	p.ZoneMoves = true
	p.ZonePhase = p0
	if rnd.Float64() >= 0.5 {
		p.ZonePhase = 2 - p0
	}
	return p
}

// Resolve judges a shot fired elapsed after the session started.
func (p Params) Resolve(elapsed time.Duration) Outcome {
	pos := PositionAt(elapsed, p.Speed)
	center := p.ZoneCenter
	if p.ZoneMoves {
		center = ZoneCenterAt(elapsed, p.ZoneWidth, p.Speed, p.ZonePhase)
	}
	return Outcome{Pos: pos, ZoneCenter: center, Hit: IsHit(pos, center, p.ZoneWidth)}
}

// ResolveElapsed picks the elapsed time used for judging. The client value wins
// while it is within maxDrift of the server measurement; otherwise the server
// value is used and drifted is true.
func ResolveElapsed(server, client, maxDrift time.Duration) (used time.Duration, drifted bool) {
	delta := server - client
	if delta < 0 {
		delta = -delta
	}
	if delta <= maxDrift {
		return client, false
	}
	return server, true
}

// zoneRange returns the lowest valid center and the span of valid centers.
func zoneRange(width float64) (lo, span float64) {
	lo = width / 2
	hi := 1 - width/2
	return lo, math.Max(0, hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

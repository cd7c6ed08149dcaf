package domain

import "time"

// ShotSession is a started shot waiting to be fired. It can be fired once.
type ShotSession struct {
	ID            string    `db:"id"`
	AccountID     int64     `db:"account_id"`
	Difficulty    int       `db:"difficulty"`
	ZoneCenter    float64   `db:"zone_center"`
	ZoneWidth     float64   `db:"zone_width"`
	Speed         float64   `db:"speed"`
	ZoneMoves     bool      `db:"zone_moves"`
	ZonePhase     float64   `db:"zone_phase"`
	BaseStartedAt time.Time `db:"base_started_at"`
	Used          bool      `db:"used"`
	CreatedAt     time.Time `db:"created_at"`
}

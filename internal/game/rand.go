package game

import (
	"crypto/rand"
	"encoding/binary"
)

// Rand is the source of uniform draws in [0,1) used for zone placement.
type Rand interface {
	Float64() float64
}

// CryptoRand draws from crypto/rand so zone placement cannot be predicted
// from earlier shots.
type CryptoRand struct{}

func (CryptoRand) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// SeqRand replays a fixed sequence of draws, cycling when exhausted.
type SeqRand struct {
	Values []float64
	i      int
}

func (s *SeqRand) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.i%len(s.Values)]
	s.i++
	return v
}

package fourrooms

import (
	"time"

	erand "golang.org/x/exp/rand"
)

// Source is the single deterministic random stream of an environment.
// Its whole state is the PCG generator state, so State/Restore are bit exact.
type Source struct {
	pcg  *erand.PCGSource
	rand *erand.Rand
}

var _ erand.Source = &Source{}

func NewSource(seed uint64) *Source {
	s := &Source{pcg: &erand.PCGSource{}}
	s.pcg.Seed(seed)
	s.rand = erand.New(s.pcg)
	return s
}

// NewEntropySource seeds from the clock and returns the seed used.
// Only for runs that do not need to be reproduced.
func NewEntropySource() (*Source, uint64) {
	seed := uint64(time.Now().UnixNano())
	return NewSource(seed), seed
}

// RestoreSource builds an independent Source from a state returned by State
func RestoreSource(state []byte) (*Source, error) {
	s := &Source{pcg: &erand.PCGSource{}}
	if err := s.pcg.UnmarshalBinary(state); err != nil {
		return nil, snapshotErrorf("random state: %s", err)
	}
	s.rand = erand.New(s.pcg)
	return s, nil
}

func (s *Source) Seed(seed uint64) {
	s.pcg.Seed(seed)
}

func (s *Source) Uint64() uint64 {
	return s.pcg.Uint64()
}

// Float64 returns a uniform draw in [0,1)
func (s *Source) Float64() float64 {
	return s.rand.Float64()
}

// Intn returns a uniform draw in [0,n)
func (s *Source) Intn(n int) int {
	return s.rand.Intn(n)
}

// State returns a copy of the generator state
func (s *Source) State() []byte {
	// PCGSource.MarshalBinary never fails
	bs, _ := s.pcg.MarshalBinary()
	return bs
}

// Restore overwrites the generator state. On error the source is left unchanged.
func (s *Source) Restore(state []byte) error {
	pcg := &erand.PCGSource{}
	if err := pcg.UnmarshalBinary(state); err != nil {
		return snapshotErrorf("random state: %s", err)
	}
	*s.pcg = *pcg
	return nil
}

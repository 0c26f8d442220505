package random

import (
	"errors"
	"fmt"
)

var ErrEmptyDistribution = errors.New("distribution has no positive weight")

// Intner is the only thing a Distribution needs from a random stream
type Intner interface {
	Intn(n int) int
}

// Outcome pairs a value with its integer weight
type Outcome[T any] struct {
	Value  T
	Weight int
}

// Distribution is an ordered discrete distribution. Draw rolls once in
// [0, total) and walks cumulative weights in declaration order.
type Distribution[T any] struct {
	outcomes []Outcome[T]
	total    int
}

func NewDistribution[T any](outcomes ...Outcome[T]) (*Distribution[T], error) {
	total := 0
	for _, o := range outcomes {
		if o.Weight < 0 {
			return nil, fmt.Errorf("negative weight %d for outcome %v", o.Weight, o.Value)
		}
		total += o.Weight
	}
	if total == 0 {
		return nil, ErrEmptyDistribution
	}
	return &Distribution[T]{outcomes: outcomes, total: total}, nil
}

// MustDistribution is NewDistribution for package-level tables
func MustDistribution[T any](outcomes ...Outcome[T]) *Distribution[T] {
	d, err := NewDistribution(outcomes...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Distribution[T]) Total() int { return d.total }

func (d *Distribution[T]) Outcomes() []Outcome[T] {
	out := make([]Outcome[T], len(d.outcomes))
	copy(out, d.outcomes)
	return out
}

// Draw selects an outcome using a single roll from r
func (d *Distribution[T]) Draw(r Intner) T {
	return d.At(r.Intn(d.total))
}

// At maps a roll in [0, total) to its outcome
func (d *Distribution[T]) At(roll int) T {
	cumulative := 0
	for _, o := range d.outcomes {
		cumulative += o.Weight
		if roll < cumulative {
			return o.Value
		}
	}
	return d.outcomes[len(d.outcomes)-1].Value
}

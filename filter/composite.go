package filter

import (
	"errors"

	"github.com/hesphoros/lumberhouse/corelog"
)

// Strategy selects how a Composite reduces its children's verdicts.
type Strategy int

const (
	// AllMustPass is AND: short-circuits on the first Block.
	AllMustPass Strategy = iota
	// AnyCanPass is OR: short-circuits on the first Allow or Transform.
	AnyCanPass
	// MajorityRule evaluates every child and picks the verdict held by
	// a strict majority, ties resolving to Allow.
	MajorityRule
	// FirstMatch returns the first non-Allow verdict, else Allow.
	FirstMatch
	// Custom reduces the full verdict vector with a caller-supplied
	// function.
	Custom
)

// Reducer maps a vector of child verdicts (and their optional
// transformed records) to a single verdict for Custom composites.
type Reducer func(verdicts []Verdict, records []*corelog.Record) (Verdict, *corelog.Record)

// ErrCycle is returned when adding a child would make a Composite
// contain itself, directly or transitively.
var ErrCycle = errors.New("filter: composite would contain itself")

// Composite evaluates a list of child filters under Strategy.
type Composite struct {
	strategy Strategy
	children []Filter
	reducer  Reducer
	s        *stats
}

// NewComposite builds a Composite. reducer is only consulted when
// strategy == Custom. Returns ErrCycle if any child (transitively)
// already contains the composite being built.
func NewComposite(strategy Strategy, reducer Reducer, children ...Filter) (*Composite, error) {
	c := &Composite{strategy: strategy, reducer: reducer, s: newStats()}
	for _, ch := range children {
		if err := c.AddChild(ch); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddChild appends child to the composite's children, rejecting the
// addition if it would introduce a cycle.
func (c *Composite) AddChild(child Filter) error {
	if containsComposite(child, c) {
		return ErrCycle
	}
	c.children = append(c.children, child)
	return nil
}

// containsComposite reports whether node is, or transitively contains,
// target.
func containsComposite(node Filter, target *Composite) bool {
	if node == nil {
		return false
	}
	if nc, ok := node.(*Composite); ok {
		if nc == target {
			return true
		}
		for _, ch := range nc.children {
			if containsComposite(ch, target) {
				return true
			}
		}
	}
	return false
}

func (c *Composite) Apply(record *corelog.Record) (Verdict, *corelog.Record) {
	return timeApply(c.s, func() (Verdict, *corelog.Record) {
		switch c.strategy {
		case AllMustPass:
			return c.applyAllMustPass(record)
		case AnyCanPass:
			return c.applyAnyCanPass(record)
		case MajorityRule:
			return c.applyMajorityRule(record)
		case FirstMatch:
			return c.applyFirstMatch(record)
		case Custom:
			return c.applyCustom(record)
		default:
			return Allow, nil
		}
	})
}

func (c *Composite) applyAllMustPass(record *corelog.Record) (Verdict, *corelog.Record) {
	current := record
	transformed := false
	for _, ch := range c.children {
		v, r := ch.Apply(current)
		if v == Block {
			return Block, nil
		}
		if v == Transform {
			transformed = true
			if r != nil {
				current = r
			}
		}
	}
	if transformed {
		return Transform, current
	}
	return Allow, nil
}

func (c *Composite) applyAnyCanPass(record *corelog.Record) (Verdict, *corelog.Record) {
	if len(c.children) == 0 {
		return Block, nil
	}
	for _, ch := range c.children {
		v, r := ch.Apply(record)
		if v == Allow {
			return Allow, nil
		}
		if v == Transform {
			return Transform, r
		}
	}
	return Block, nil
}

func (c *Composite) applyMajorityRule(record *corelog.Record) (Verdict, *corelog.Record) {
	var allow, block, transform int
	var lastTransformed *corelog.Record
	for _, ch := range c.children {
		v, r := ch.Apply(record)
		switch v {
		case Allow:
			allow++
		case Block:
			block++
		case Transform:
			transform++
			lastTransformed = r
		}
	}
	n := len(c.children)
	if n == 0 {
		return Allow, nil
	}
	majority := n/2 + 1
	switch {
	case block >= majority:
		return Block, nil
	case transform >= majority:
		return Transform, lastTransformed
	case allow >= majority:
		return Allow, nil
	default:
		return Allow, nil
	}
}

func (c *Composite) applyFirstMatch(record *corelog.Record) (Verdict, *corelog.Record) {
	for _, ch := range c.children {
		v, r := ch.Apply(record)
		if v != Allow {
			return v, r
		}
	}
	return Allow, nil
}

func (c *Composite) applyCustom(record *corelog.Record) (Verdict, *corelog.Record) {
	verdicts := make([]Verdict, len(c.children))
	records := make([]*corelog.Record, len(c.children))
	for i, ch := range c.children {
		verdicts[i], records[i] = ch.Apply(record)
	}
	if c.reducer == nil {
		return Allow, nil
	}
	return c.reducer(verdicts, records)
}

// QuickReject composes per spec: OR across children under AllMustPass
// (any child rejecting the level rejects the whole composite), AND
// across children under AnyCanPass (every child must reject for the
// composite to reject). Other strategies conservatively never
// quick-reject, since their semantics depend on evaluating every child.
func (c *Composite) QuickReject(level corelog.Level) bool {
	switch c.strategy {
	case AllMustPass:
		for _, ch := range c.children {
			if ch.QuickReject(level) {
				return true
			}
		}
		return false
	case AnyCanPass:
		if len(c.children) == 0 {
			return false
		}
		for _, ch := range c.children {
			if !ch.QuickReject(level) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (c *Composite) IsExpensive() bool {
	for _, ch := range c.children {
		if ch.IsExpensive() {
			return true
		}
	}
	return false
}

func (c *Composite) Clone() Filter {
	children := make([]Filter, len(c.children))
	for i, ch := range c.children {
		children[i] = ch.Clone()
	}
	return &Composite{strategy: c.strategy, reducer: c.reducer, children: children, s: newStats()}
}

func (c *Composite) TypeName() string { return "composite" }

func (c *Composite) Stats() StatsSnapshot { return c.s.snapshot() }
func (c *Composite) ResetStats()          { c.s.reset() }

// Children returns the composite's child filters, in evaluation order.
func (c *Composite) Children() []Filter {
	out := make([]Filter, len(c.children))
	copy(out, c.children)
	return out
}

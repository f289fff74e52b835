package timeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrEmptyConfiguration = errors.New("timeline: configuration has no stages")
	ErrEmptyChain         = errors.New("timeline: empty chain")
	ErrDuplicateStage     = errors.New("timeline: duplicate stage")
	ErrInvalidStageID     = errors.New("timeline: invalid stage id")
)

// Chain is an ordered dependency sequence: member n+1 starts only after
// member n completes.
type Chain []StageID

type position struct {
	chain int
	index int
}

// Configuration is the immutable description of a page type's stages. Chains
// are independent of each other and run concurrently; members within a chain
// run strictly in order.
type Configuration struct {
	page   string
	chains []Chain
	order  []StageID
	pos    map[StageID]position
}

// NewConfiguration validates chains and builds a Configuration for page.
func NewConfiguration(page string, chains ...Chain) (*Configuration, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("page %q: %w", page, ErrEmptyConfiguration)
	}

	cfg := &Configuration{
		page: page,
		pos:  make(map[StageID]position),
	}
	for ci, ch := range chains {
		if len(ch) == 0 {
			return nil, fmt.Errorf("page %q: chain %d: %w", page, ci, ErrEmptyChain)
		}
		for i, id := range ch {
			if strings.TrimSpace(string(id)) == "" {
				return nil, fmt.Errorf("page %q: chain %d member %d: %w", page, ci, i, ErrInvalidStageID)
			}
			if _, dup := cfg.pos[id]; dup {
				return nil, fmt.Errorf("page %q: stage %q: %w", page, id, ErrDuplicateStage)
			}
			cfg.pos[id] = position{chain: ci, index: i}
			cfg.order = append(cfg.order, id)
		}
		cfg.chains = append(cfg.chains, slices.Clone(ch))
	}
	return cfg, nil
}

// Sequence builds a single-chain Configuration.
func Sequence(page string, ids ...StageID) (*Configuration, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("page %q: %w", page, ErrEmptyConfiguration)
	}
	return NewConfiguration(page, Chain(ids))
}

// MustSequence is Sequence for static configurations; it panics on error.
func MustSequence(page string, ids ...StageID) *Configuration {
	cfg, err := Sequence(page, ids...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Page returns the page type this configuration belongs to.
func (c *Configuration) Page() string { return c.page }

// Len returns the number of stages.
func (c *Configuration) Len() int { return len(c.order) }

// Stages returns every stage in configured order.
func (c *Configuration) Stages() []StageID { return slices.Clone(c.order) }

// Contains reports whether id is configured.
func (c *Configuration) Contains(id StageID) bool {
	_, ok := c.pos[id]
	return ok
}

// Chains returns the chains in the order they run for dir. Exit reverses both
// the chain list and every chain so the most recently entered stage leaves
// first.
func (c *Configuration) Chains(dir Direction) []Chain {
	out := make([]Chain, len(c.chains))
	for i, ch := range c.chains {
		cp := slices.Clone(ch)
		if dir == DirectionExit {
			slices.Reverse(cp)
		}
		out[i] = cp
	}
	if dir == DirectionExit {
		slices.Reverse(out)
	}
	return out
}

// Roots returns the first stage of every chain for dir.
func (c *Configuration) Roots(dir Direction) []StageID {
	chains := c.Chains(dir)
	roots := make([]StageID, 0, len(chains))
	for _, ch := range chains {
		roots = append(roots, ch[0])
	}
	return roots
}

// Next returns the stage released when id completes in dir.
func (c *Configuration) Next(id StageID, dir Direction) (StageID, bool) {
	p, ok := c.pos[id]
	if !ok {
		return "", false
	}
	ch := c.chains[p.chain]
	if dir == DirectionExit {
		if p.index == 0 {
			return "", false
		}
		return ch[p.index-1], true
	}
	if p.index+1 >= len(ch) {
		return "", false
	}
	return ch[p.index+1], true
}

// Previous returns the stage that must complete before id may start in dir.
func (c *Configuration) Previous(id StageID, dir Direction) (StageID, bool) {
	return c.Next(id, opposite(dir))
}

func opposite(d Direction) Direction {
	if d == DirectionEnter {
		return DirectionExit
	}
	return DirectionEnter
}

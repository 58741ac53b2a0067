package analyzer

import "sort"

// Postdominator records that Postdominator lies on every path from Block to
// the exit. Distance is the shortest block-path length between the two; a
// block postdominates itself at distance 0.
type Postdominator struct {
	Distance      int
	Block         *BasicBlock
	Postdominator *BasicBlock
}

// PostdominatorSet holds the postdominators of every reachable block of one CFG
type PostdominatorSet struct {
	blocks    []*BasicBlock
	byID      map[int]*BasicBlock
	sets      map[int]map[int]int // block -> postdominator -> distance
	immediate map[int]*BasicBlock
}

// ComputePostdominators runs the iterative postdominator analysis.
//
// Sets start at "every block" for all blocks except sinks, which start at
// themselves, and are intersected over successors until nothing changes.
// Sets only shrink, so the loop ends after at most one pass per block.
// Distances are measured afterwards by breadth-first search, which orders
// the postdominator chain of a block from nearest to farthest.
func ComputePostdominators(cfg *CFG) *PostdominatorSet {
	blocks := cfg.Blocks()
	p := &PostdominatorSet{
		blocks:    blocks,
		byID:      make(map[int]*BasicBlock, len(blocks)),
		sets:      make(map[int]map[int]int, len(blocks)),
		immediate: make(map[int]*BasicBlock, len(blocks)),
	}

	membership := make(map[int]map[int]bool, len(blocks))
	for _, block := range blocks {
		p.byID[block.ID] = block
		set := make(map[int]bool)
		if len(block.Successors) == 0 {
			set[block.ID] = true
		} else {
			for _, other := range blocks {
				set[other.ID] = true
			}
		}
		membership[block.ID] = set
	}

	for changed := true; changed; {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			block := blocks[i]
			succs := block.SuccessorBlocks()
			if len(succs) == 0 {
				continue
			}
			merged := make(map[int]bool)
			for id := range membership[succs[0].ID] {
				common := true
				for _, succ := range succs[1:] {
					if !membership[succ.ID][id] {
						common = false
						break
					}
				}
				if common {
					merged[id] = true
				}
			}
			merged[block.ID] = true
			if len(merged) != len(membership[block.ID]) {
				membership[block.ID] = merged
				changed = true
			}
		}
	}

	for _, block := range blocks {
		dist := shortestDistances(block)
		set := make(map[int]int, len(membership[block.ID]))
		for id := range membership[block.ID] {
			d, ok := dist[id]
			if !ok {
				d = len(blocks)
			}
			set[id] = d
		}
		p.sets[block.ID] = set
	}

	for _, block := range blocks {
		var best *BasicBlock
		bestDistance := 0
		for id, d := range p.sets[block.ID] {
			if id == block.ID {
				continue
			}
			if best == nil || d < bestDistance || (d == bestDistance && id < best.ID) {
				best = p.byID[id]
				bestDistance = d
			}
		}
		if best != nil {
			p.immediate[block.ID] = best
		}
	}
	return p
}

func shortestDistances(from *BasicBlock) map[int]int {
	dist := map[int]int{from.ID: 0}
	queue := []*BasicBlock{from}
	for len(queue) > 0 {
		block := queue[0]
		queue = queue[1:]
		for _, succ := range block.SuccessorBlocks() {
			if _, seen := dist[succ.ID]; seen {
				continue
			}
			dist[succ.ID] = dist[block.ID] + 1
			queue = append(queue, succ)
		}
	}
	return dist
}

// Postdominates reports whether pdom postdominates block
func (p *PostdominatorSet) Postdominates(pdom, block *BasicBlock) bool {
	if pdom == nil || block == nil {
		return false
	}
	_, ok := p.sets[block.ID][pdom.ID]
	return ok
}

// Immediate returns the nearest strict postdominator of block, or nil for the exit
func (p *PostdominatorSet) Immediate(block *BasicBlock) *BasicBlock {
	return p.immediate[block.ID]
}

// Of returns the postdominators of block ordered by distance
func (p *PostdominatorSet) Of(block *BasicBlock) []Postdominator {
	set := p.sets[block.ID]
	result := make([]Postdominator, 0, len(set))
	for id, d := range set {
		result = append(result, Postdominator{Distance: d, Block: block, Postdominator: p.byID[id]})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Distance != result[j].Distance {
			return result[i].Distance < result[j].Distance
		}
		return result[i].Postdominator.ID < result[j].Postdominator.ID
	})
	return result
}

// ReverseDominanceFrontiers maps each block ID to the branch blocks it is
// control dependent on. Walks from a branch stop at blocks that postdominate
// it and at blocks sharing its immediate postdominator.
func (p *PostdominatorSet) ReverseDominanceFrontiers() map[int][]*BasicBlock {
	frontiers := make(map[int][]*BasicBlock)
	inFrontier := make(map[[2]int]bool)

	for _, block := range p.blocks {
		succs := block.SuccessorBlocks()
		if len(succs) < 2 {
			continue
		}
		ipdom := p.Immediate(block)

		scheduled := make(map[int]bool, len(succs))
		queue := make([]*BasicBlock, 0, len(succs))
		for _, succ := range succs {
			scheduled[succ.ID] = true
			queue = append(queue, succ)
		}

		for len(queue) > 0 {
			item := queue[0]
			queue = queue[1:]
			if p.Postdominates(item, block) {
				continue
			}
			key := [2]int{item.ID, block.ID}
			if !inFrontier[key] {
				inFrontier[key] = true
				frontiers[item.ID] = append(frontiers[item.ID], block)
			}
			if p.Immediate(item) == ipdom {
				continue
			}
			for _, next := range item.SuccessorBlocks() {
				if !scheduled[next.ID] {
					scheduled[next.ID] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return frontiers
}

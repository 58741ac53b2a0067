package analyzer

// ControlDependencies computes control-dependency edges of cfg. Every
// statement of a branch block becomes a source for every statement of the
// blocks in whose reverse dominance frontier the branch lies.
func ControlDependencies(cfg *CFG) *DependencySet {
	deps := NewDependencySet()
	if cfg == nil || cfg.Entry == nil {
		return deps
	}

	pdoms := ComputePostdominators(cfg)
	frontiers := pdoms.ReverseDominanceFrontiers()

	for _, block := range cfg.Blocks() {
		for _, branch := range frontiers[block.ID] {
			for _, from := range branch.Statements {
				for _, to := range block.Statements {
					deps.Add(Dependency{From: from, To: to, Kind: DependencyControl})
				}
			}
		}
	}
	return deps
}

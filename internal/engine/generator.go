package engine

import "github.com/piwi3910/RotorSizer/internal/model"

// Generate enumerates every combo × compatible battery × selected print
// material (× selected cutting material, when any are selected) as an
// unevaluated candidate. The order follows the catalog and the selection
// lists. With no print materials selected the result is empty.
func Generate(cat *model.Catalog, cs model.ConstraintSet) []model.Candidate {
	cands := []model.Candidate{}
	if len(cs.PrintMaterials) == 0 {
		return cands
	}

	for _, combo := range cat.Combos {
		for _, bat := range cat.Batteries {
			if !model.Compatible(combo, bat) {
				continue
			}
			for _, pm := range cs.PrintMaterials {
				if len(cs.CuttingMaterials) == 0 {
					cands = append(cands, model.NewCandidate(combo, bat, pm, nil))
					continue
				}
				for i := range cs.CuttingMaterials {
					cm := cs.CuttingMaterials[i]
					cands = append(cands, model.NewCandidate(combo, bat, pm, &cm))
				}
			}
		}
	}
	return cands
}

package universe

import (
	"github.com/wonny/swingscan/internal/contracts"
)

// Lookup is the sector → members view the candidate builder needs
type Lookup interface {
	SymbolsInSector(fmpSector string) []Member
}

// BuildCandidates expands winning sectors into candidates, sector by sector.
// Symbols are not deduplicated across sectors.
// ⭐ SSOT: S2 후보 생성
func BuildCandidates(lookup Lookup, sectors []contracts.WinningSector) []contracts.Candidate {
	var candidates []contracts.Candidate
	for _, s := range sectors {
		for _, m := range lookup.SymbolsInSector(s.Name) {
			candidates = append(candidates, contracts.Candidate{
				Symbol:          m.Symbol,
				Name:            m.Name,
				Sector:          s.Name,
				SectorChangePct: s.Performance,
			})
		}
	}
	return candidates
}

package selection

import (
	"sort"

	"github.com/wonny/swingscan/internal/contracts"
)

// RankStocks sorts by score descending (ties keep input order), assigns ranks
// 1..k to the first k = min(limit, len) entries and returns only those.
// ⭐ SSOT: S4 랭킹 로직은 여기서만
func RankStocks(stocks []contracts.EnrichedStock, limit int) []contracts.RankedStock {
	if limit <= 0 || len(stocks) == 0 {
		return []contracts.RankedStock{}
	}

	sorted := make([]contracts.EnrichedStock, len(stocks))
	copy(sorted, stocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}

	ranked := make([]contracts.RankedStock, limit)
	for i := 0; i < limit; i++ {
		ranked[i] = contracts.RankedStock{
			EnrichedStock: sorted[i],
			Rank:          i + 1,
		}
	}

	return ranked
}

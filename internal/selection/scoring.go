package selection

import (
	"math"

	"github.com/wonny/swingscan/internal/contracts"
)

// Conviction score weights (sum to 1.0)
const (
	WeightUpside = 0.35 // 상승 여력
	WeightSector = 0.20 // 섹터 강도
	WeightVolume = 0.15 // 거래량 추세
	WeightValue  = 0.30 // 52주 레인지 내 위치
)

// CalculateATH returns the maximum daily high; ok is false for no bars
func CalculateATH(bars []contracts.DailyBar) (ath float64, ok bool) {
	if len(bars) == 0 {
		return 0, false
	}
	ath = bars[0].High
	for _, b := range bars[1:] {
		if b.High > ath {
			ath = b.High
		}
	}
	return ath, true
}

// PctBelowATH returns how far price sits below ath, in percent. Zero ath yields 0.
func PctBelowATH(price, ath float64) float64 {
	if ath == 0 {
		return 0
	}
	return (ath - price) / ath * 100
}

// Upside returns the percent gain from price to target. Zero price yields 0.
func Upside(price, target float64) float64 {
	if price == 0 {
		return 0
	}
	return (target - price) / price * 100
}

// ScoreStock computes the 0-100 conviction score
// ⭐ SSOT: 점수 공식은 여기서만
func ScoreStock(s contracts.EnrichedStock) float64 {
	upsideScore := math.Min(s.UpsidePct, 100)

	sectorScore := clamp((s.SectorChangePct+5)*10, 0, 100)

	avgVolume := float64(s.AvgVolume)
	if avgVolume <= 0 {
		avgVolume = 1
	}
	volumeScore := clamp(float64(s.Volume)/avgVolume*50, 0, 100)

	valueScore := 50.0
	if yearRange := s.YearHigh - s.YearLow; yearRange > 0 {
		valueScore = (s.YearHigh - s.Price) / yearRange * 100
	}

	score := upsideScore*WeightUpside +
		sectorScore*WeightSector +
		volumeScore*WeightVolume +
		valueScore*WeightValue

	if math.IsNaN(score) {
		return 0
	}
	return Round(clamp(score, 0, 100), 1)
}

// Round rounds x to places decimal places (half away from zero)
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

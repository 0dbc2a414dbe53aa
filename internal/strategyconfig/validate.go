package strategyconfig

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var hhmm = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}
	if cfg.Meta.ScanTime != "" {
		if err := validateHHMM(cfg.Meta.ScanTime); err != nil {
			return ValidationError{"meta.scan_time_local", err.Error()}
		}
	}

	// === Screening ===
	s := cfg.Screening
	if s.MarketCapMin < 0 {
		return ValidationError{"screening.market_cap_min", "must be >= 0"}
	}
	if s.VolumeMin < 0 {
		return ValidationError{"screening.volume_min", "must be >= 0"}
	}
	if s.ATHMinPct < 0 {
		return ValidationError{"screening.ath_min_pct", "must be >= 0"}
	}
	if s.ATHMaxPct > 100 {
		return ValidationError{"screening.ath_max_pct", "must be <= 100"}
	}
	if s.ATHMinPct > s.ATHMaxPct {
		return ValidationError{"screening", fmt.Sprintf("ath_min_pct=%.1f must be <= ath_max_pct=%.1f", s.ATHMinPct, s.ATHMaxPct)}
	}

	// === Ranking ===
	if cfg.Ranking.TopN <= 0 {
		return ValidationError{"ranking.top_n", "must be > 0"}
	}

	// === Execution ===
	if cfg.Execution.Workers < 1 {
		return ValidationError{"execution.workers", "must be >= 1"}
	}
	if cfg.Execution.LookbackDays < 1 {
		return ValidationError{"execution.lookback_days", "must be >= 1"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 범위가 너무 좁으면 후보가 거의 남지 않음
	if cfg.Screening.ATHMaxPct-cfg.Screening.ATHMinPct < 5 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_ATH_RANGE",
			Message: "ath range < 5%p: few candidates will pass",
		})
	}

	// 1년 미만 히스토리는 ATH를 과소평가
	if cfg.Execution.LookbackDays < 365 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_LOOKBACK",
			Message: "lookback < 1 year: all-time high is understated",
		})
	}

	// 동시 요청이 많으면 429 위험
	if cfg.Execution.Workers > 4 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_CONCURRENCY",
			Message: "workers > 4: upstream may answer 429 and halt the scan early",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateHHMM(s string) error {
	if !hhmm.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}

package strategyconfig

// Config는 스캔 프로필 전체 설정 (config/profiles/*.yaml)
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Execution Execution `yaml:"execution" json:"execution"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
	Timezone    string `yaml:"timezone" json:"timezone"`
	ScanTime    string `yaml:"scan_time_local" json:"scan_time_local"` // HH:MM, 스케줄러 참고용
}

// Screening S3a/S3b 필터
type Screening struct {
	MarketCapMin int64   `yaml:"market_cap_min" json:"market_cap_min"`
	VolumeMin    int64   `yaml:"volume_min" json:"volume_min"`
	ATHMinPct    float64 `yaml:"ath_min_pct" json:"ath_min_pct"`
	ATHMaxPct    float64 `yaml:"ath_max_pct" json:"ath_max_pct"`
}

// Ranking S4
type Ranking struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// Execution controls how the scan spends its API budget
type Execution struct {
	Workers      int `yaml:"workers" json:"workers"`
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
}

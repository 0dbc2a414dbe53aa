package contracts

// Scan Stage 정의 (SSOT)
// 모든 로그, 진행 메시지, 메트릭 라벨에서 이 상수를 사용해야 함
//
// 스캔 흐름 (건너뛰기/재진입 없음):
//   S1 → S2 → S3a → S3b → S4
//   Sectors  Candidates  QuickFilter  DeepEnrich  Rank

// Stage represents a scan stage
type Stage string

const (
	// StageSectors S1: 섹터 성과 조회 및 상위 섹터 선정
	// 책임: 상승 섹터만 남기고 내림차순 정렬, 최대 3개
	// 위치: internal/scanner/scanner.go (runSectors)
	StageSectors Stage = "S1_SECTORS"

	// StageCandidates S2: 후보 종목 수집 (네트워크 호출 없음)
	// 위치: internal/universe/
	StageCandidates Stage = "S2_CANDIDATES"

	// StageQuickFilter S3a: 시세 1회 호출로 값싼 1차 필터
	StageQuickFilter Stage = "S3A_QUICK_FILTER"

	// StageDeepEnrich S3b: 장기 일봉으로 실제 ATH 계산, 점수화, 필터
	StageDeepEnrich Stage = "S3B_DEEP_ENRICH"

	// StageRank S4: 점수 내림차순 정렬 및 Top N
	// 위치: internal/selection/ranker.go
	StageRank Stage = "S4_RANK"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S1", "S3a")
func (s Stage) ShortName() string {
	switch s {
	case StageSectors:
		return "S1"
	case StageCandidates:
		return "S2"
	case StageQuickFilter:
		return "S3a"
	case StageDeepEnrich:
		return "S3b"
	case StageRank:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human-readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageSectors:
		return "sector selection"
	case StageCandidates:
		return "candidate sourcing"
	case StageQuickFilter:
		return "quick filter"
	case StageDeepEnrich:
		return "deep enrichment"
	case StageRank:
		return "ranking"
	default:
		return "unknown"
	}
}

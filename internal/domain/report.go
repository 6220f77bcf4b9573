package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	SeasonStatusOK     = "ok"
	SeasonStatusFailed = "failed"
)

// 单集匹配结果。
const (
	OutcomeDefinite = "definite"
	OutcomeFuzzy    = "fuzzy"
	OutcomeNone     = "none"
)

// 单集 note 写入状态。
const (
	NoteStatusPlanned = "planned" // dry-run：已确定目标但未落盘
	NoteStatusWritten = "written"
	NoteStatusFailed  = "failed"
	NoteStatusSkipped = "skipped" // 无匹配，不写
)

const (
	ErrCodeFetchFailed       = "fetch_failed"
	ErrCodeParseFailed       = "parse_failed"
	ErrCodeMalformedDocument = "malformed_document"
	ErrCodeDirNotFound       = "dir_not_found"
	ErrCodeWriteFailed       = "write_failed"
	ErrCodeNoteConflict      = "note_conflict" // note 路径被目录等占用
	ErrCodeIOFailed          = "io_failed"
	ErrCodeLocked            = "run_locked"
	ErrCodeCanceled          = "canceled"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingBase = "config_missing_base_dir"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	RunID   string `json:"run_id"`
	BaseDir string `json:"base_dir"`
	DryRun  bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary  `json:"summary"`
	Seasons []SeasonResult `json:"seasons"`
}

type ReportSummary struct {
	Seasons       int `json:"seasons"`
	FailedSeasons int `json:"failed_seasons"`
	Episodes      int `json:"episodes"`
	Definite      int `json:"definite"`
	Fuzzy         int `json:"fuzzy"`
	NoMatch       int `json:"no_match"`
	WriteFailed   int `json:"write_failed"`
}

type SeasonResult struct {
	Season    int    `json:"season"`
	URL       string `json:"url"`
	Dir       string `json:"dir"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Episodes []EpisodeResult `json:"episodes"`
}

type EpisodeResult struct {
	Number string `json:"number"`
	Title  string `json:"title"`
	Aired  string `json:"aired"`

	Outcome string `json:"outcome"`
	File    string `json:"file"`
	Score   int    `json:"score"`

	Note       string `json:"note"`
	NoteStatus string `json:"note_status"`
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorMsg   string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) seasons 按季号稳定排序（季内的集保持页面遍历顺序，不排序）
// 3) summary 由 seasons 计算得出（计数只属于本次 run，不放进全局变量）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Seasons, func(i, j int) bool { return r.Seasons[i].Season < r.Seasons[j].Season })

	var s ReportSummary
	for _, sr := range r.Seasons {
		s.Seasons++
		if sr.Status == SeasonStatusFailed {
			s.FailedSeasons++
		}
		for _, ep := range sr.Episodes {
			s.Episodes++
			switch ep.Outcome {
			case OutcomeDefinite:
				s.Definite++
			case OutcomeFuzzy:
				s.Fuzzy++
			case OutcomeNone:
				s.NoMatch++
			}
			if ep.NoteStatus == NoteStatusFailed {
				s.WriteFailed++
			}
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（nil 切片输出为 []）。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	a := Alias(r)
	a.Seasons = append(make([]SeasonResult, 0, len(r.Seasons)), r.Seasons...)
	for i := range a.Seasons {
		if a.Seasons[i].Episodes == nil {
			a.Seasons[i].Episodes = []EpisodeResult{}
		}
	}
	return json.Marshal(a)
}

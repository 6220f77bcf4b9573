package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		BaseDir:    "/abs/path",
		DryRun:     true,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Seasons: []SeasonResult{
			{Season: 12, Status: SeasonStatusOK, Episodes: []EpisodeResult{
				{Title: "b", Outcome: OutcomeFuzzy, NoteStatus: NoteStatusFailed},
				{Title: "a", Outcome: OutcomeNone, NoteStatus: NoteStatusSkipped},
			}},
			{Season: 3, Status: SeasonStatusFailed, ErrorCode: ErrCodeFetchFailed},
			{Season: 7, Status: SeasonStatusOK, Episodes: []EpisodeResult{
				{Title: "c", Outcome: OutcomeDefinite, NoteStatus: NoteStatusWritten},
			}},
		},
	}

	r.Finalize()

	if r.Seasons[0].Season != 3 || r.Seasons[1].Season != 7 || r.Seasons[2].Season != 12 {
		t.Fatalf("seasons 排序不符合契约：%d %d %d", r.Seasons[0].Season, r.Seasons[1].Season, r.Seasons[2].Season)
	}
	// 季内顺序保持页面顺序。
	if r.Seasons[2].Episodes[0].Title != "b" || r.Seasons[2].Episodes[1].Title != "a" {
		t.Fatalf("季内顺序不应被改变：%+v", r.Seasons[2].Episodes)
	}

	want := ReportSummary{Seasons: 3, FailedSeasons: 1, Episodes: 3, Definite: 1, Fuzzy: 1, NoMatch: 1, WriteFailed: 1}
	if r.Summary != want {
		t.Fatalf("summary 统计不正确：got=%+v want=%+v", r.Summary, want)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
	// 失败季的 episodes 必须是 [] 而不是 null。
	if !bytes.Contains(b, []byte("\"episodes\":[]")) {
		t.Fatalf("空 episodes 应输出为 []：%s", string(b))
	}
	if r.Seasons[0].Episodes != nil {
		t.Fatalf("MarshalJSON 不应修改调用方数据")
	}
}

func TestSeasonLabel_ZeroPadded(t *testing.T) {
	if got := SeasonLabel(7); got != "07" {
		t.Fatalf("期望 07，实际 %q", got)
	}
	if got := SeasonLabel(12); got != "12" {
		t.Fatalf("期望 12，实际 %q", got)
	}
}

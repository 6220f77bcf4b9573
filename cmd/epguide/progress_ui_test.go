package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/domain"
)

func TestFormatEpisode(t *testing.T) {
	cases := []struct {
		res  domain.EpisodeResult
		want []string
	}{
		{
			res:  domain.EpisodeResult{Outcome: domain.OutcomeDefinite, File: "a.m4v", Note: "a.m4v.txt", NoteStatus: domain.NoteStatusWritten},
			want: []string{"确定匹配", "a.m4v", "已写入 a.m4v.txt"},
		},
		{
			res:  domain.EpisodeResult{Title: "The Grift of the Magi", Outcome: domain.OutcomeFuzzy, File: "Gift of the Magi.m4v", Score: 2, NoteStatus: domain.NoteStatusPlanned, Note: "n"},
			want: []string{"疑似", "score=2", "将写入"},
		},
		{
			res:  domain.EpisodeResult{Title: "Lost", Outcome: domain.OutcomeNone, NoteStatus: domain.NoteStatusSkipped},
			want: []string{"无法处理", "Lost"},
		},
		{
			res:  domain.EpisodeResult{Outcome: domain.OutcomeDefinite, File: "a.m4v", NoteStatus: domain.NoteStatusFailed, ErrorMsg: "disk full"},
			want: []string{"写入失败", "disk full"},
		},
	}
	for _, tc := range cases {
		got := formatEpisode(tc.res)
		for _, w := range tc.want {
			if !strings.Contains(got, w) {
				t.Fatalf("期望包含 %q，实际 %q", w, got)
			}
		}
	}
}

func TestProgressUI_Events(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{BaseDir: "/tv", Seasons: []int{8, 9}, Host: "snpp.com", Port: 80, URIBase: "/episodeguide/season", URISuffix: ".html", MediaExt: ".m4v", NoteExt: ".txt"})
	p.OnPhaseDone("exec", map[string]any{"workers": 2, "total_seasons": 2}, 0)
	p.OnEpisode(8, domain.EpisodeResult{Number: "3F24", Outcome: domain.OutcomeNone, Title: "x"})
	p.OnSeasonDone(1, 2, domain.SeasonResult{Season: 8, Status: domain.SeasonStatusOK}, time.Second)
	p.OnSeasonDone(2, 2, domain.SeasonResult{Season: 9, Status: domain.SeasonStatusFailed, ErrorCode: domain.ErrCodeFetchFailed, ErrorMsg: "HTTP 404"}, time.Second)

	out := buf.String()
	for _, w := range []string{
		"epguide run (dry-run)",
		"seasons: [8,9]",
		"source: snpp.com:80/episodeguide/season{N}.html",
		"workers=2 total_seasons=2",
		"S08 3F24",
		"[1/2] 第 08 季 OK",
		"[2/2] 第 09 季 FAIL fetch_failed: HTTP 404",
	} {
		if !strings.Contains(out, w) {
			t.Fatalf("输出缺少 %q：\n%s", w, out)
		}
	}
	if p.tickerStarted {
		t.Fatalf("全部完成后 ticker 应已停止")
	}
}

func TestFormatProxy(t *testing.T) {
	if got := formatProxy(""); got != "off" {
		t.Fatalf("期望 off，实际 %q", got)
	}
	if got := formatProxy("http://u:p@127.0.0.1:3128"); got != "on (http://127.0.0.1:3128, auth=on)" {
		t.Fatalf("代理展示不符合预期：%q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 5); got != "ab..." {
		t.Fatalf("期望 ab...，实际 %q", got)
	}
	if got := truncate(" abc ", 10); got != "abc" {
		t.Fatalf("期望 abc，实际 %q", got)
	}
}

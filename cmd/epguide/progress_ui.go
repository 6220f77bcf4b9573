package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/epguide/internal/app/run"
	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：长时间没有季完成时定期输出一行
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers int
	total   int
	done    int
	ok      int
	fail    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (不写入 note)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] epguide run (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  base_dir: %s\n", eff.BaseDir)
	fmt.Fprintf(p.w, "  seasons: %s\n", formatSeasons(eff.Seasons))
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  source: %s\n", sourceURL(eff))
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  rate_limit: %s\n", formatRate(eff.RateLimit))
	fmt.Fprintf(p.w, "  files: *%s -> *%s%s\n", eff.MediaExt, eff.MediaExt, eff.NoteExt)
	if eff.Refresh {
		fmt.Fprintln(p.w, "  cache: refresh")
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "exec":
		p.workers = intField(fields, "workers")
		p.total = intField(fields, "total_seasons")
		fmt.Fprintf(p.w, "执行: workers=%d total_seasons=%d\n\n", p.workers, p.total)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnEpisode(season int, res domain.EpisodeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "  S%s %s %s\n", domain.SeasonLabel(season), res.Number, formatEpisode(res))
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnSeasonDone(idx, total int, res domain.SeasonResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	if res.Status == domain.SeasonStatusFailed {
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] 第 %s 季 FAIL %s: %s (%s)\n",
			idx, total, domain.SeasonLabel(res.Season), res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	} else {
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] 第 %s 季 OK episodes=%d (%s)\n",
			idx, total, domain.SeasonLabel(res.Season), len(res.Episodes), formatShortDuration(dur),
		)
	}
	p.lastPrinted = time.Now()

	// 最后一季完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) OnProgress(done, total, ok, fail, active int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d active=%d elapsed=%s\n",
		done, total, ok, fail, active, formatElapsed(elapsed),
	)
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					active := p.workers
					if remain := p.total - p.done; remain < active {
						active = remain
					}
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d active=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, active, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// formatEpisode 给出单集的一行结论。
func formatEpisode(res domain.EpisodeResult) string {
	var s string
	switch res.Outcome {
	case domain.OutcomeDefinite:
		s = fmt.Sprintf("确定匹配 %q", res.File)
	case domain.OutcomeFuzzy:
		s = fmt.Sprintf("%q 疑似 %q (score=%d)", res.Title, res.File, res.Score)
	default:
		return fmt.Sprintf("无法处理 %q：目录中没有相近的文件", res.Title)
	}
	switch res.NoteStatus {
	case domain.NoteStatusWritten:
		s += " -> 已写入 " + res.Note
	case domain.NoteStatusFailed:
		s += " -> 写入失败：" + truncate(res.ErrorMsg, 120)
	case domain.NoteStatusPlanned:
		s += " -> 将写入 " + res.Note
	}
	return s
}

func sourceURL(eff config.EffectiveConfig) string {
	return fmt.Sprintf("%s:%d%s{N}%s", eff.Host, eff.Port, eff.URIBase, eff.URISuffix)
}

func formatSeasons(xs []int) string {
	parts := make([]string, 0, len(xs))
	for _, s := range xs {
		parts = append(parts, fmt.Sprint(s))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatRate(r float64) string {
	if r <= 0 {
		return "off"
	}
	return fmt.Sprintf("%g req/s", r)
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}

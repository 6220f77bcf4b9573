package run

import (
	"time"

	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/domain"
)

// Observer 用于把“运行进度/阶段/单集结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：事件可能来自多个 goroutine。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段就绪时调用（目前只有 "exec"：workers / total_seasons）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnEpisode 在某一集完成匹配与写入后调用（同一季内按遍历顺序）。
	OnEpisode(season int, res domain.EpisodeResult)
	// OnSeasonDone 在某一季处理完成时调用。
	OnSeasonDone(idx, total int, res domain.SeasonResult, dur time.Duration)
	// OnProgress 用于 keepalive（通常由 CLI 自己 ticker 触发；run 层不强制调用）。
	OnProgress(done, total, ok, fail, active int, elapsed time.Duration)
}

// nopObserver 让执行流程无需到处判断 obs != nil。
type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                            {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration)         {}
func (nopObserver) OnEpisode(int, domain.EpisodeResult)                       {}
func (nopObserver) OnSeasonDone(int, int, domain.SeasonResult, time.Duration) {}
func (nopObserver) OnProgress(int, int, int, int, int, time.Duration)         {}

package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/domain"
	"github.com/John-Robertt/epguide/internal/extract"
	"github.com/John-Robertt/epguide/internal/infra/cache"
	"github.com/John-Robertt/epguide/internal/infra/httpx"
	"github.com/John-Robertt/epguide/internal/logging"
	"github.com/John-Robertt/epguide/internal/match"
	"github.com/John-Robertt/epguide/internal/note"
	"github.com/John-Robertt/epguide/internal/source"
)

// LockFileName 是 apply 模式下的运行锁，位于 base_dir 下。
const LockFileName = ".epguide.lock"

// Error 是 run 级别的失败（锁、client 构造），整个 run 不再继续。
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// env 汇集一次 run 内各季共享的只读依赖。
type env struct {
	eff     config.EffectiveConfig
	src     source.Source
	client  *http.Client
	store   cache.Store
	log     *slog.Logger
	obs     Observer
	matcher match.Matcher
	writer  note.Writer
	extract extract.Extractor
}

func newEnv(eff config.EffectiveConfig, src source.Source, log *slog.Logger, obs Observer, readOnly bool) (*env, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	if eff.MediaExt == "" {
		eff.MediaExt = match.DefaultMediaExt
	}
	if eff.NoteExt == "" {
		eff.NoteExt = match.DefaultNoteExt
	}
	client, err := httpx.NewClient(httpx.Options{ProxyURL: eff.ProxyURL, RateLimit: eff.RateLimit})
	if err != nil {
		return nil, &Error{Code: domain.ErrCodeConfigInvalid, Err: fmt.Errorf("proxy.url 无效：%w", err)}
	}
	return &env{
		eff:     eff,
		src:     src,
		client:  client,
		store:   cache.New(eff.BaseDir, readOnly),
		log:     log,
		obs:     obs,
		matcher: match.Matcher{MediaExt: eff.MediaExt, NoteExt: eff.NoteExt},
		writer:  note.Writer{Enabled: eff.Apply},
		extract: extract.Extractor{Logger: log.With(logging.FieldStage, "extract")},
	}, nil
}

// NewSource 由生效配置构造默认的 HTTP 目录页来源。
func NewSource(eff config.EffectiveConfig) source.HTTPSource {
	return source.HTTPSource{
		Host:      eff.Host,
		Port:      eff.Port,
		URIBase:   eff.URIBase,
		URISuffix: eff.URISuffix,
	}
}

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 单季失败只记录在该季结果里，不影响其他季；返回的 error 仅表示 run 级失败。
func Execute(ctx context.Context, eff config.EffectiveConfig, src source.Source, log *slog.Logger) (domain.RunReport, error) {
	return ExecuteWithObserver(ctx, eff, src, log, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, src source.Source, log *slog.Logger, obs Observer) (domain.RunReport, error) {
	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		BaseDir:   eff.BaseDir,
		DryRun:    !eff.Apply,
		StartedAt: time.Now().UTC(),
		Seasons:   make([]domain.SeasonResult, 0, len(eff.Seasons)),
	}
	finish := func(err error) (domain.RunReport, error) {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr, err
	}

	if log == nil {
		log = logging.NewNop()
	}
	log = log.With(logging.FieldRunID, rr.RunID)

	e, err := newEnv(eff, src, log, obs, !eff.Apply)
	if err != nil {
		return finish(err)
	}
	e.obs.OnStart(eff)

	// apply：同一 base_dir 同时只允许一个写入者。
	if eff.Apply {
		lk, err := acquireLock(eff.BaseDir)
		if err != nil {
			return finish(err)
		}
		defer func() {
			if err := lk.Unlock(); err != nil {
				log.Warn("释放运行锁失败", "path", lk.Path(), "error", err)
			}
		}()
	}

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	e.obs.OnPhaseDone("exec", map[string]any{
		"workers":       workers,
		"total_seasons": len(eff.Seasons),
	}, 0)
	log.Info("开始处理", "seasons", eff.Seasons, "apply", eff.Apply, "workers", workers)

	type seasonDone struct {
		res domain.SeasonResult
		dur time.Duration
	}

	seen := make(map[int]bool, len(eff.Seasons))
	idx := 0
	forEachSeason(ctx, eff.Seasons, workers, func(season int) seasonDone {
		started := time.Now()
		res := e.processSeason(ctx, season)
		return seasonDone{res: res, dur: time.Since(started)}
	}, func(d seasonDone) {
		idx++
		seen[d.res.Season] = true
		rr.Seasons = append(rr.Seasons, d.res)
		e.obs.OnSeasonDone(idx, len(eff.Seasons), d.res, d.dur)
	})

	// ctx 取消后未派发的季：也要出现在 report 里。
	for _, s := range eff.Seasons {
		if seen[s] {
			continue
		}
		rr.Seasons = append(rr.Seasons, domain.SeasonResult{
			Season:    s,
			Dir:       e.seasonDir(s),
			Status:    domain.SeasonStatusFailed,
			ErrorCode: domain.ErrCodeCanceled,
			ErrorMsg:  "run 已取消，未处理",
		})
	}

	return finish(nil)
}

func acquireLock(base string) (*flock.Flock, error) {
	lk := flock.New(filepath.Join(base, LockFileName))
	ok, err := lk.TryLock()
	if err != nil {
		return nil, &Error{Code: domain.ErrCodeIOFailed, Err: fmt.Errorf("获取运行锁失败：%w", err)}
	}
	if !ok {
		return nil, &Error{Code: domain.ErrCodeLocked, Err: fmt.Errorf("已有另一个 apply 正在处理 %s", base)}
	}
	return lk, nil
}

// Code 从 run 级 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

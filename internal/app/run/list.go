package run

import (
	"context"
	"log/slog"

	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/domain"
	"github.com/John-Robertt/epguide/internal/source"
)

// List 只做取页 + 抽取，返回每季的集列表（按季号排序）。
// 不匹配、不写 note，也不写缓存。
func List(ctx context.Context, eff config.EffectiveConfig, src source.Source, log *slog.Logger) ([]domain.SeasonListing, error) {
	e, err := newEnv(eff, src, log, nil, true)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SeasonListing, 0, len(eff.Seasons))
	forEachSeason(ctx, eff.Seasons, eff.Concurrency, func(season int) domain.SeasonListing {
		l := domain.SeasonListing{Season: season, Status: domain.SeasonStatusOK, Episodes: []domain.Episode{}}
		eps, u, err := e.loadEpisodes(ctx, season)
		l.URL = u
		if err != nil {
			l.Status = domain.SeasonStatusFailed
			l.ErrorCode = errorCode(err)
			l.ErrorMsg = err.Error()
			e.log.Warn("本季失败", "season", season, "error_code", l.ErrorCode, "error", err)
			return l
		}
		l.Episodes = eps
		return l
	}, func(l domain.SeasonListing) {
		out = append(out, l)
	})

	domain.SortListings(out)
	return out, ctx.Err()
}

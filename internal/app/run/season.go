package run

import (
	"context"
	"errors"

	"github.com/John-Robertt/epguide/internal/domain"
	"github.com/John-Robertt/epguide/internal/extract"
	"github.com/John-Robertt/epguide/internal/infra/fsx"
	"github.com/John-Robertt/epguide/internal/logging"
	"github.com/John-Robertt/epguide/internal/markup"
	"github.com/John-Robertt/epguide/internal/note"
	"github.com/John-Robertt/epguide/internal/scan"
	"github.com/John-Robertt/epguide/internal/source"
)

func (e *env) seasonDir(season int) string {
	return scan.SeasonDir(e.eff.BaseDir, season)
}

// processSeason: fetch -> parse -> extract -> list -> (match -> write) per episode。
// 任一阶段失败都只产生本季的一个错误，其它季不受影响。
func (e *env) processSeason(ctx context.Context, season int) domain.SeasonResult {
	log := e.log.With(logging.FieldSeason, season)
	dir := e.seasonDir(season)
	res := domain.SeasonResult{
		Season:   season,
		Dir:      dir,
		Status:   domain.SeasonStatusOK,
		Episodes: []domain.EpisodeResult{},
	}
	fail := func(err error) domain.SeasonResult {
		res.Status = domain.SeasonStatusFailed
		res.ErrorCode = errorCode(err)
		res.ErrorMsg = err.Error()
		log.Warn("本季失败", "error_code", res.ErrorCode, "error", err)
		return res
	}

	episodes, pageURL, err := e.loadEpisodes(ctx, season)
	res.URL = pageURL
	if err != nil {
		return fail(err)
	}
	log.Info("抽取完成", "episodes", len(episodes), "url", pageURL)

	// 目录只列一次：之后本季所有集都对同一份快照做匹配。
	names, err := scan.ListNames(dir)
	if err != nil {
		return fail(err)
	}

	for _, ep := range episodes {
		er := e.handleEpisode(ep, dir, names)
		res.Episodes = append(res.Episodes, er)
		e.obs.OnEpisode(season, er)
	}
	return res
}

func (e *env) handleEpisode(ep domain.Episode, dir string, names []string) domain.EpisodeResult {
	log := e.log.With(logging.FieldSeason, ep.Season, logging.FieldEpisode, ep.Number)

	r := e.matcher.Match(ep.Title, names)
	er := domain.EpisodeResult{
		Number:  ep.Number,
		Title:   ep.Title,
		Aired:   ep.Aired,
		Outcome: r.Outcome,
		File:    r.File,
		Score:   r.Score,
	}
	if !r.Matched() {
		er.NoteStatus = domain.NoteStatusSkipped
		log.Info("没有匹配的文件", "title", ep.Title)
		return er
	}

	er.Note = note.Name(r.File, e.matcher.NoteExt)
	if err := e.writer.Write(dir, er.Note, note.Encode(ep)); err != nil {
		er.NoteStatus = domain.NoteStatusFailed
		er.ErrorCode = noteErrorCode(err)
		er.ErrorMsg = err.Error()
		log.Warn("写入 note 失败", logging.FieldFile, er.Note, "error", err)
		return er
	}
	if e.writer.Enabled {
		er.NoteStatus = domain.NoteStatusWritten
	} else {
		er.NoteStatus = domain.NoteStatusPlanned
	}
	log.Debug("匹配完成", "outcome", r.Outcome, logging.FieldFile, r.File, "score", r.Score)
	return er
}

// loadEpisodes: 取页（先查缓存）-> 解析 -> 抽取。
func (e *env) loadEpisodes(ctx context.Context, season int) ([]domain.Episode, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	b, pageURL, err := e.fetchPage(ctx, season)
	if err != nil {
		return nil, pageURL, err
	}
	root, err := markup.Parse(b)
	if err != nil {
		return nil, pageURL, err
	}
	eps, err := e.extract.Extract(season, root)
	if err != nil {
		return nil, pageURL, err
	}
	return eps, pageURL, nil
}

func (e *env) fetchPage(ctx context.Context, season int) ([]byte, string, error) {
	host := e.eff.Host
	if !e.eff.Refresh {
		b, ok, err := e.store.ReadSeasonHTML(host, season)
		if err != nil {
			// 坏缓存：忽略，走网络。
			e.log.Debug("读取缓存失败", logging.FieldSeason, season, "error", err)
		} else if ok {
			e.log.Debug("命中缓存", logging.FieldSeason, season)
			return b, e.src.URL(season), nil
		}
	}

	b, u, err := e.src.Fetch(ctx, season, e.client)
	if err != nil {
		return nil, u, err
	}
	if !e.store.ReadOnly {
		if err := e.store.WriteSeasonHTML(host, season, b); err != nil {
			e.log.Warn("写入缓存失败", logging.FieldSeason, season, "error", err)
		}
	}
	return b, u, nil
}

// errorCode 把各阶段的类型化错误映射为 report 里的 error_code。
// noteErrorCode 区分 note 路径被占用与其它写入失败。
func noteErrorCode(err error) string {
	if fsx.IsTargetConflict(err) {
		return domain.ErrCodeNoteConflict
	}
	return domain.ErrCodeWriteFailed
}

func errorCode(err error) string {
	var (
		te *source.TransportError
		pe *markup.ParseError
		me *extract.MalformedDocumentError
		de *scan.DirectoryNotFoundError
		we *note.WriteError
	)
	switch {
	case errors.As(err, &te):
		return domain.ErrCodeFetchFailed
	case errors.As(err, &pe):
		return domain.ErrCodeParseFailed
	case errors.As(err, &me):
		return domain.ErrCodeMalformedDocument
	case errors.As(err, &de):
		return domain.ErrCodeDirNotFound
	case errors.As(err, &we):
		return domain.ErrCodeWriteFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrCodeCanceled
	default:
		return domain.ErrCodeIOFailed
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/epguide/internal/app/run"
	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/domain"
	"github.com/John-Robertt/epguide/internal/infra/cache"
	"github.com/John-Robertt/epguide/internal/infra/fsx"
)

// reportFileName 是 apply 时写入缓存目录的 report。
const reportFileName = "report.json"

func newRunCommand(opts *rootOptions) *cobra.Command {
	var (
		sf    seasonFlags
		apply bool
	)

	cmd := &cobra.Command{
		Use:   "run [base_dir]",
		Short: "为每集匹配视频文件并写 note（默认 dry-run）",
		Long: `为每集匹配 base_dir/Season NN/ 下的视频文件，并在旁边写入同名 note。

未给出 base_dir 时读取当前目录的 epguide.json（必须包含 base_dir）。
默认 dry-run：只输出匹配结果，不写任何文件；--apply 才落盘。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := sf.cliArgs(cmd, args, opts)
			cli.Apply = apply
			cli.ApplySet = cmd.Flags().Changed("apply")

			eff, err := loadConfig(cli)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			progressW, interactive := pickProgressWriter(stdout, stderr)
			log, err := newLogger(stderr, eff.Verbose, interactive)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			var obs run.Observer
			if interactive {
				obs = newProgressUI(progressW)
			}

			rr, runErr := run.ExecuteWithObserver(cmd.Context(), eff, run.NewSource(eff), log, obs)

			// apply：写入 <base>/.epguide-cache/report.json；dry-run 禁止落盘。
			if eff.Apply && runErr == nil {
				if err := writeReportFile(eff.BaseDir, rr); err != nil {
					fmt.Fprintf(stderr, "写入 %s 失败：%v\n", reportFileName, err)
				}
			}

			emitReport(stdout, stderr, rr)
			if runErr != nil {
				if code := run.Code(runErr); code != "" {
					runErr = fmt.Errorf("%s: %w", code, runErr)
				}
				return &exitError{code: 1, err: runErr}
			}
			if interactive {
				emitLocations(progressW, eff)
			}
			if rr.Summary.FailedSeasons > 0 || rr.Summary.WriteFailed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	sf.bind(cmd)
	cmd.Flags().BoolVar(&apply, "apply", false, "写入 note（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true")
	return cmd
}

// emitReport：stdout 为 TTY 时输出摘要表；否则 stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
func emitReport(stdout, stderr io.Writer, rr domain.RunReport) {
	if isTTY(stdout) {
		fmt.Fprintln(stdout, renderSummary(rr))
		fmt.Fprintln(stdout, summaryLine(rr))
		for _, sr := range rr.Seasons {
			if sr.Status == domain.SeasonStatusFailed {
				fmt.Fprintf(stderr, "第 %s 季 %s: %s\n", domain.SeasonLabel(sr.Season), sr.ErrorCode, sr.ErrorMsg)
			}
		}
		return
	}

	enc := json.NewEncoder(stdout)
	_ = enc.Encode(rr)
	fmt.Fprintln(stderr, summaryLine(rr))
}

func summaryLine(rr domain.RunReport) string {
	s := rr.Summary
	return fmt.Sprintf("完成：seasons=%d failed=%d episodes=%d definite=%d fuzzy=%d none=%d write_failed=%d",
		s.Seasons, s.FailedSeasons, s.Episodes, s.Definite, s.Fuzzy, s.NoMatch, s.WriteFailed,
	)
}

func renderSummary(rr domain.RunReport) string {
	headers := []string{"季", "状态", "集数", "确定", "疑似", "无匹配", "写入失败", "错误"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(rr.Seasons))
	for _, sr := range rr.Seasons {
		var def, fuzzy, none, wf int
		for _, ep := range sr.Episodes {
			switch ep.Outcome {
			case domain.OutcomeDefinite:
				def++
			case domain.OutcomeFuzzy:
				fuzzy++
			default:
				none++
			}
			if ep.NoteStatus == domain.NoteStatusFailed {
				wf++
			}
		}
		rows = append(rows, []string{
			domain.SeasonLabel(sr.Season),
			sr.Status,
			strconv.Itoa(len(sr.Episodes)),
			strconv.Itoa(def),
			strconv.Itoa(fuzzy),
			strconv.Itoa(none),
			strconv.Itoa(wf),
			sr.ErrorCode,
		})
	}
	return renderTable(headers, rows, aligns)
}

func writeReportFile(base string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(filepath.Join(base, cache.DirName), reportFileName, b)
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if eff.Apply {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.BaseDir, cache.DirName, reportFileName))
	}
}

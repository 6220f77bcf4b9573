package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/epguide/internal/app/run"
	"github.com/John-Robertt/epguide/internal/domain"
)

const listSeparator = "-----------------------------------------"

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		sf      seasonFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list [base_dir]",
		Short: "只抽取并打印每集信息（不匹配、不写入）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := loadConfig(sf.cliArgs(cmd, args, opts))
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			log, err := newLogger(stderr, eff.Verbose, false)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			ls, err := run.List(cmd.Context(), eff, run.NewSource(eff), log)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := json.NewEncoder(stdout).Encode(ls); err != nil {
					return err
				}
			} else {
				printListing(stdout, ls)
			}

			failed := 0
			for _, l := range ls {
				if l.Status == domain.SeasonStatusFailed {
					failed++
					fmt.Fprintf(stderr, "第 %s 季 %s: %s\n", domain.SeasonLabel(l.Season), l.ErrorCode, l.ErrorMsg)
				}
			}
			if failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	sf.bind(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "以 JSON 输出")
	return cmd
}

func printListing(w io.Writer, ls []domain.SeasonListing) {
	var b strings.Builder
	for _, l := range ls {
		for _, ep := range l.Episodes {
			fmt.Fprintf(&b, "SEASON %d EPISODE %s: \"%s\" (aired %s)\n", ep.Season, ep.Number, ep.Title, ep.Aired)
			b.WriteString(ep.Description)
			b.WriteByte('\n')
			b.WriteString(listSeparator)
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "%d total episodes\n", domain.CountEpisodes(ls))
	_, _ = io.WriteString(w, b.String())
}

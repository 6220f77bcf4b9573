package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/epguide/internal/config"
	"github.com/John-Robertt/epguide/internal/logging"
)

type rootOptions struct {
	verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "epguide",
		Short:         "从剧集指南页抽取每集信息，并在对应视频旁写 note",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出 debug 日志（含被跳过的页面元素）")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	return rootCmd
}

// seasonFlags 是 run/list 共用的选择项。
type seasonFlags struct {
	seasons []int
	refresh bool
}

func (f *seasonFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntSliceVarP(&f.seasons, "season", "s", nil, "要处理的季号，可重复或逗号分隔（覆盖配置文件 seasons）")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "忽略页面缓存，重新抓取")
}

func (f *seasonFlags) cliArgs(cmd *cobra.Command, args []string, opts *rootOptions) config.CLIArgs {
	cli := config.CLIArgs{
		Seasons:    f.seasons,
		SeasonsSet: cmd.Flags().Changed("season"),
		Refresh:    f.refresh,
		Verbose:    opts.verbose,
	}
	if len(args) > 0 {
		cli.BaseDir = args[0]
	}
	return cli
}

func loadConfig(cli config.CLIArgs) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, err
	}
	return config.LoadEffective(cwd, cli)
}

// newLogger：日志只写 stderr。交互终端下进度已由 progressUI 展示，非 verbose 时只留 warn 以上。
func newLogger(w io.Writer, verbose, interactive bool) (*slog.Logger, error) {
	level := logging.LevelFor(verbose)
	if interactive && !verbose {
		level = "warn"
	}
	return logging.New(w, logging.Options{Level: level})
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName 是配置文件名。
const FileName = "epguide.json"

const (
	// ErrCodeNotFound 表示未给 base dir 且 cwd 下没有 epguide.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingBaseDir 表示未给 base dir 且配置文件缺少 base_dir 字段。
	ErrCodeMissingBaseDir = "config_missing_base_dir"
)

const (
	DefaultHost        = "snpp.com"
	DefaultPort        = 80
	DefaultURIBase     = "/episodeguide/season"
	DefaultURISuffix   = ".html"
	DefaultMediaExt    = ".m4v"
	DefaultNoteExt     = ".txt"
	DefaultConcurrency = 4
	MaxConcurrency     = 32
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	BaseDir string

	Seasons    []int
	SeasonsSet bool

	Apply    bool
	ApplySet bool

	// 以下两项只由 CLI 控制。
	Refresh bool
	Verbose bool
}

// FileConfig 对应 epguide.json 的解析结构。
type FileConfig struct {
	BaseDir     string        `json:"base_dir"`
	Seasons     []int         `json:"seasons"`
	Apply       *bool         `json:"apply"`
	Concurrency int           `json:"concurrency"`
	Source      *SourceConfig `json:"source"`
	MediaExt    string        `json:"media_ext"`
	NoteExt     string        `json:"note_ext"`
	Proxy       *ProxyConfig  `json:"proxy"`
	RateLimit   float64       `json:"rate_limit"`
}

type SourceConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	URIBase   string `json:"uri_base"`
	URISuffix string `json:"uri_suffix"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	BaseDir string
	Seasons []int // 去重、升序

	Apply   bool
	Refresh bool
	Verbose bool

	Concurrency int

	Host      string
	Port      int
	URIBase   string
	URISuffix string

	MediaExt string
	NoteExt  string

	ProxyURL  string
	RateLimit float64
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingBaseDir:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 base_dir", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 base dir：尝试读取 <base>/epguide.json（可选）
// 2) CLI 未提供 base dir：必须读取 <cwd>/epguide.json（必选），且其中必须包含 base_dir
//
// 覆盖优先级（固定）：
// - base_dir：CLI > config
// - seasons / apply：CLI > config > 默认
// - refresh / verbose：仅 CLI
// - 其他字段：仅由 config 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.BaseDir) != "" {
		base := absCleanFrom(cwdAbs, cli.BaseDir)
		cfgPath := filepath.Join(base, FileName)

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(base, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.BaseDir) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingBaseDir, Path: cfgPath}
	}
	return merge(absCleanFrom(cwdAbs, fc.BaseDir), cli, fc, cfgPath)
}

func merge(base string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	seasons := fc.Seasons
	if cli.SeasonsSet {
		seasons = cli.Seasons
	}
	seasons, err := normalizeSeasons(seasons)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	src := SourceConfig{}
	if fc.Source != nil {
		src = *fc.Source
	}
	host := strings.TrimSpace(src.Host)
	if host == "" {
		host = DefaultHost
	}
	port := src.Port
	if port == 0 {
		port = DefaultPort
	}
	if port < 1 || port > 65535 {
		return EffectiveConfig{}, invalid("source.port 超出范围：%d", port)
	}
	uriBase := src.URIBase
	if uriBase == "" {
		uriBase = DefaultURIBase
	}
	if !strings.HasPrefix(uriBase, "/") {
		return EffectiveConfig{}, invalid("source.uri_base 必须以 / 开头：%q", uriBase)
	}
	uriSuffix := src.URISuffix
	if uriSuffix == "" {
		uriSuffix = DefaultURISuffix
	}

	mediaExt, err := normalizeExt(fc.MediaExt, DefaultMediaExt)
	if err != nil {
		return EffectiveConfig{}, invalid("media_ext 无效：%v", err)
	}
	noteExt, err := normalizeExt(fc.NoteExt, DefaultNoteExt)
	if err != nil {
		return EffectiveConfig{}, invalid("note_ext 无效：%v", err)
	}
	if strings.EqualFold(mediaExt, noteExt) {
		return EffectiveConfig{}, invalid("media_ext 与 note_ext 不能相同：%q", mediaExt)
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return EffectiveConfig{}, invalid("proxy.url 无效：%w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, invalid("proxy.url 缺少 scheme 或 host：%q", proxyURL)
		}
	}

	if fc.RateLimit < 0 {
		return EffectiveConfig{}, invalid("rate_limit 不能为负数：%v", fc.RateLimit)
	}

	return EffectiveConfig{
		BaseDir:     base,
		Seasons:     seasons,
		Apply:       apply,
		Refresh:     cli.Refresh,
		Verbose:     cli.Verbose,
		Concurrency: concurrency,
		Host:        host,
		Port:        port,
		URIBase:     uriBase,
		URISuffix:   uriSuffix,
		MediaExt:    mediaExt,
		NoteExt:     noteExt,
		ProxyURL:    proxyURL,
		RateLimit:   fc.RateLimit,
	}, nil
}

func normalizeSeasons(in []int) ([]int, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("seasons 不能为空")
	}
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, s := range in {
		if s <= 0 {
			return nil, fmt.Errorf("season 必须为正整数，实际 %d", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Ints(out)
	return out, nil
}

func normalizeExt(ext, def string) (string, error) {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return def, nil
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if len(ext) < 2 || strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("%q", ext)
	}
	return ext, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

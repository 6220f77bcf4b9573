package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/epguide/internal/infra/fsx"
)

// DirName 是缓存目录名，位于 base_dir 下。
const DirName = ".epguide-cache"

// Store 提供 <base>/.epguide-cache/ 下的目录页缓存读写。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Root     string // <base>（剧集根目录）
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// SeasonHTMLPath 返回某站点某一季目录页缓存的绝对路径。
func (s Store) SeasonHTMLPath(host string, season int) (string, error) {
	dir, name, err := s.seasonHTMLLocation(host, season)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s Store) ReadSeasonHTML(host string, season int) ([]byte, bool, error) {
	path, err := s.SeasonHTMLPath(host, season)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// 空文件视为未命中（上次写入可能被中断）。
	if len(b) == 0 {
		return nil, false, nil
	}
	return b, true, nil
}

func (s Store) WriteSeasonHTML(host string, season int, html []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	dir, name, err := s.seasonHTMLLocation(host, season)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(dir, name, html)
}

func (s Store) seasonHTMLLocation(host string, season int) (string, string, error) {
	h, err := cleanHost(host)
	if err != nil {
		return "", "", err
	}
	if season <= 0 {
		return "", "", fmt.Errorf("season 必须为正整数，实际 %d", season)
	}
	return filepath.Join(s.Root, DirName, h), fmt.Sprintf("season%d.html", season), nil
}

var hostRE = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]*$`)

func cleanHost(h string) (string, error) {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		return "", fmt.Errorf("host 不能为空")
	}
	// 最小约束：避免路径穿越。
	if !hostRE.MatchString(h) || strings.Contains(h, "..") {
		return "", fmt.Errorf("非法 host：%q", h)
	}
	return h, nil
}

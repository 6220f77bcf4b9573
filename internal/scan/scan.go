package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/epguide/internal/domain"
)

// DirectoryNotFoundError 表示季目录不存在（该季的匹配阶段无法继续）。
type DirectoryNotFoundError struct {
	Dir string
	Err error
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("season directory not found: %q", e.Dir)
}

func (e *DirectoryNotFoundError) Unwrap() error { return e.Err }

// IsDirectoryNotFound 判断 err 是否为季目录缺失。
func IsDirectoryNotFound(err error) bool {
	var e *DirectoryNotFoundError
	return errors.As(err, &e)
}

// SeasonDir 返回 {base}/Season {两位季号}。
func SeasonDir(base string, season int) string {
	return filepath.Join(filepath.Clean(base), "Season "+domain.SeasonLabel(season))
}

// ListNames 列出 dir 下的普通文件名（不递归、不读内容）。
//
// 规则：
// - 目录、隐藏文件（'.' 开头，含原子写入的临时文件）不列出
// - 按文件名字典序稳定输出；匹配时“同分取先出现者”依赖这个顺序
func ListNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DirectoryNotFoundError{Dir: dir, Err: err}
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			continue
		}
		// 符号链接也算候选：媒体库里常见指向其它盘的链接。
		if !e.Type().IsRegular() && e.Type()&fs.ModeSymlink == 0 {
			continue
		}
		names = append(names, name)
	}

	// os.ReadDir 已按名字排序；这里显式保证，避免依赖实现细节。
	sort.Strings(names)
	return names, nil
}

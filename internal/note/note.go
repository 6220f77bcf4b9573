package note

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/epguide/internal/domain"
	"github.com/John-Robertt/epguide/internal/infra/fsx"
)

// Encode 生成单集 note 的全文：
//
//	{number}: {title} (aired {aired})
//
//	{description}
func Encode(ep domain.Episode) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (aired %s)\n\n%s\n", ep.Number, ep.Title, ep.Aired, ep.Description)
	return []byte(b.String())
}

// Name 返回匹配文件对应的 note 文件名（原文件名 + note 后缀）。
func Name(file, noteExt string) string {
	return file + noteExt
}

// WriteError 表示 note 落盘失败（含 short write）。不重试，也不影响其它集。
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write note %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer 把 note 写到匹配文件旁边。
//
// Enabled=false 时不落盘但返回成功（dry-run / 测试）。
type Writer struct {
	Enabled bool
}

// Write 以 content 作为文件全部内容写入 dir/name（覆盖已有 note）。
func (w Writer) Write(dir, name string, content []byte) error {
	if !w.Enabled {
		return nil
	}
	if err := fsx.WriteFileAtomic(dir, name, content); err != nil {
		return &WriteError{Path: filepath.Join(dir, name), Err: err}
	}
	return nil
}

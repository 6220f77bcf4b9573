package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// 测试通过替换它来模拟 rename 失败。
var renameFunc = os.Rename

// TargetConflictError 表示目标名已被非普通文件占用（常见：与 note 同名的目录）。
// run 把它映射为 error_code=note_conflict，与一般的 write_failed 区分。
type TargetConflictError struct {
	Path string
	Mode fs.FileMode
}

func (e *TargetConflictError) Error() string {
	kind := "非普通文件（" + e.Mode.Type().String() + "）"
	if e.Mode.IsDir() {
		kind = "目录"
	}
	return fmt.Sprintf("%q 已被%s占用，不能写成文件", e.Path, kind)
}

func IsTargetConflict(err error) bool {
	var e *TargetConflictError
	return errors.As(err, &e)
}

// WriteFileAtomic 把 data 写成 dir/name 的全部内容：同目录临时文件写满并 fsync 后 rename。
// note、cache 页面和 report.json 都走这里，读者只会看到旧内容或新内容。
//
// - 已存在的普通文件被覆盖；dir 不存在时创建
// - 目标被目录等占用：返回 *TargetConflictError，不动原路径
// - short write 按错误返回；任何失败都会删掉临时文件
func WriteFileAtomic(dir, name string, data []byte) error {
	dir = filepath.Clean(dir)
	dst := filepath.Join(dir, name)
	if err := checkTarget(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	p, err := newPending(dir, name)
	if err != nil {
		return err
	}
	defer p.discard()

	if err := p.fill(data); err != nil {
		return err
	}
	return p.commit(dst)
}

func checkTarget(dst string) error {
	fi, err := os.Lstat(dst)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	case !fi.Mode().IsRegular():
		return &TargetConflictError{Path: dst, Mode: fi.Mode()}
	default:
		return nil
	}
}

// pending 是尚未 rename 到位的临时文件。名字以 '.' 开头，列季目录时会被跳过。
type pending struct {
	f    *os.File
	dir  string
	done bool
}

func newPending(dir, name string) (*pending, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &pending{f: f, dir: dir}, nil
}

func (p *pending) fill(data []byte) error {
	if err := writeAll(p.f, data); err != nil {
		return err
	}
	if err := p.f.Chmod(0o644); err != nil {
		return err
	}
	if err := p.f.Sync(); err != nil {
		return err
	}
	return p.f.Close()
}

func (p *pending) commit(dst string) error {
	if err := renameFunc(p.f.Name(), dst); err != nil {
		return err
	}
	p.done = true
	syncDir(p.dir)
	return nil
}

// discard 关闭并删除未提交的临时文件；commit 成功后什么也不做。
func (p *pending) discard() {
	if p.done {
		return
	}
	_ = p.f.Close()
	_ = os.Remove(p.f.Name())
}

// writeAll 循环写直到写完；一次写入没有任何进展时返回 io.ErrShortWrite。
func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}

// syncDir 尽力而为；Windows 上目录 Sync 不可靠，直接跳过。
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}

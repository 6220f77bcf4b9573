package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingBaseDir(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"seasons":[1]}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingBaseDir {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingBaseDir, err, Code(err))
	}
}

func TestLoadEffective_ApplyCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"base_dir":"simpsons","seasons":[8],"apply":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		Apply:    false,
		ApplySet: true, // --apply=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Apply != false {
		t.Fatalf("期望 apply=false，实际=%v", eff.Apply)
	}

	wantBase := filepath.Join(cwd, "simpsons")
	if eff.BaseDir != wantBase {
		t.Fatalf("期望 base_dir=%q，实际=%q", wantBase, eff.BaseDir)
	}
}

func TestLoadEffective_SeasonsMergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"base_dir":"b","seasons":[12,3,12]}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if diff := cmp.Diff([]int{3, 12}, eff.Seasons); diff != "" {
		t.Fatalf("seasons 不符合预期 (-want +got):\n%s", diff)
	}

	eff, err = LoadEffective(cwd, CLIArgs{Seasons: []int{8}, SeasonsSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if diff := cmp.Diff([]int{8}, eff.Seasons); diff != "" {
		t.Fatalf("CLI seasons 应覆盖配置 (-want +got):\n%s", diff)
	}
}

func TestLoadEffective_CLIBaseDir_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{
		BaseDir:    root,
		Seasons:    []int{1},
		SeasonsSet: true,
		Refresh:    true,
		Verbose:    true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := EffectiveConfig{
		BaseDir:     root,
		Seasons:     []int{1},
		Refresh:     true,
		Verbose:     true,
		Concurrency: DefaultConcurrency,
		Host:        DefaultHost,
		Port:        DefaultPort,
		URIBase:     DefaultURIBase,
		URISuffix:   DefaultURISuffix,
		MediaExt:    DefaultMediaExt,
		NoteExt:     DefaultNoteExt,
	}
	if diff := cmp.Diff(want, eff); diff != "" {
		t.Fatalf("默认值不符合预期 (-want +got):\n%s", diff)
	}
}

func TestLoadEffective_FileFields(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
		"base_dir": "/srv/tv",
		"seasons": [2],
		"concurrency": 99,
		"source": {"host": "mirror.test", "port": 8080, "uri_base": "/guide/s", "uri_suffix": ".htm"},
		"media_ext": "mp4",
		"note_ext": ".nfo",
		"proxy": {"url": "http://127.0.0.1:3128"},
		"rate_limit": 0.5
	}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Concurrency != MaxConcurrency {
		t.Fatalf("期望并发截断为 %d，实际=%d", MaxConcurrency, eff.Concurrency)
	}
	if eff.Host != "mirror.test" || eff.Port != 8080 || eff.URIBase != "/guide/s" || eff.URISuffix != ".htm" {
		t.Fatalf("source 字段不符合预期：%+v", eff)
	}
	if eff.MediaExt != ".mp4" || eff.NoteExt != ".nfo" {
		t.Fatalf("扩展名不符合预期：media=%q note=%q", eff.MediaExt, eff.NoteExt)
	}
	if eff.ProxyURL != "http://127.0.0.1:3128" || eff.RateLimit != 0.5 {
		t.Fatalf("网络字段不符合预期：proxy=%q rate=%v", eff.ProxyURL, eff.RateLimit)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"broken json":     `{`,
		"empty seasons":   `{"base_dir":"b"}`,
		"zero season":     `{"base_dir":"b","seasons":[0]}`,
		"bad port":        `{"base_dir":"b","seasons":[1],"source":{"port":70000}}`,
		"bad uri base":    `{"base_dir":"b","seasons":[1],"source":{"uri_base":"season"}}`,
		"same ext":        `{"base_dir":"b","seasons":[1],"media_ext":".txt"}`,
		"bad proxy":       `{"base_dir":"b","seasons":[1],"proxy":{"url":"http://[::1"}}`,
		"proxy no scheme": `{"base_dir":"b","seasons":[1],"proxy":{"url":"127.0.0.1:3128"}}`,
		"negative rate":   `{"base_dir":"b","seasons":[1],"rate_limit":-1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(body))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_CLIBaseDir_InvalidConfig(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(root, FileName), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{BaseDir: root, Seasons: []int{1}, SeasonsSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}

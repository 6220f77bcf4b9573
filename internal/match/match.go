package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/John-Robertt/epguide/internal/domain"
)

const (
	DefaultMediaExt = ".m4v"
	DefaultNoteExt  = ".txt"
)

// stopWords 不参与打分（标题里太常见，会把无关文件拉上来）。
var stopWords = map[string]struct{}{
	"of":  {},
	"the": {},
	"and": {},
}

// 文件名前的序号前缀：数字段 + 分隔符，例如 "01 "、"0712 - "、"12."。
var indexPrefixRE = regexp.MustCompile(`^[0-9]+\s*[-.]?\s+|^[0-9]+[-.]`)

// lower 每次新建 Caser：Caser 有内部状态，不能跨 goroutine 共享。
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// TokenSet 是标题去停用词后的小写词集合（只做成员判断）。
type TokenSet map[string]struct{}

// Tokens 把标题按空白切分、转小写并去掉停用词。
func Tokens(title string) TokenSet {
	set := make(TokenSet)
	for _, w := range strings.Fields(title) {
		w = lower(w)
		if _, ok := stopWords[w]; ok {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

func (s TokenSet) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Candidate 是一次打分的中间结果，不落盘。
type Candidate struct {
	Name  string
	Score int
}

// Result 是匹配结论。Outcome 为 none 时 File 为空。
type Result struct {
	Outcome string // domain.OutcomeDefinite / OutcomeFuzzy / OutcomeNone
	File    string
	Score   int
}

// Matched 判断是否应该为该结果写 note。
func (r Result) Matched() bool {
	return r.Outcome == domain.OutcomeDefinite || r.Outcome == domain.OutcomeFuzzy
}

// Matcher 在一个目录快照里为单集标题挑选文件。
//
// 约束：
// - 纯函数：不修改 names，不持有跨调用状态（并发调用安全）
// - 只看标题，不看集的其它字段
type Matcher struct {
	MediaExt string // 媒体文件后缀，打分前剥离
	NoteExt  string // note 文件后缀，这类文件不参与匹配
}

func (m Matcher) mediaExt() string {
	if m.MediaExt == "" {
		return DefaultMediaExt
	}
	return m.MediaExt
}

func (m Matcher) noteExt() string {
	if m.NoteExt == "" {
		return DefaultNoteExt
	}
	return m.NoteExt
}

// Score 计算单个文件名与标题词集合的重合度（文件名里重复出现的词逐次计数）。
// 不带媒体后缀的文件（note、字幕、海报等）不是候选，返回 ok=false。
func (m Matcher) Score(tokens TokenSet, name string) (Candidate, bool) {
	if strings.HasSuffix(name, m.noteExt()) || !strings.HasSuffix(name, m.mediaExt()) {
		return Candidate{}, false
	}
	score := 0
	for _, w := range strings.Fields(strings.TrimSuffix(name, m.mediaExt())) {
		if tokens.Has(lower(w)) {
			score++
		}
	}
	return Candidate{Name: name, Score: score}, true
}

// Match 扫描 names（目录列出顺序），返回得分最高者；同分取先出现的。
//
// 判定：
// - 去掉序号前缀和媒体后缀后与标题忽略大小写相等 => definite
// - 否则最高分 > 0 => fuzzy
// - 否则 => none（包括空目录、没有媒体文件的目录）
func (m Matcher) Match(title string, names []string) Result {
	tokens := Tokens(title)

	var (
		best  Candidate
		found bool
	)
	for _, name := range names {
		c, ok := m.Score(tokens, name)
		if !ok {
			continue
		}
		if !found || c.Score > best.Score {
			best = c
			found = true
		}
	}
	if !found {
		return Result{Outcome: domain.OutcomeNone}
	}

	if m.sameName(best.Name, title) {
		return Result{Outcome: domain.OutcomeDefinite, File: best.Name, Score: best.Score}
	}
	if best.Score > 0 {
		return Result{Outcome: domain.OutcomeFuzzy, File: best.Name, Score: best.Score}
	}
	return Result{Outcome: domain.OutcomeNone, Score: best.Score}
}

// sameName 判断文件名（去后缀，带或不带序号前缀）是否与标题忽略大小写相等。
// 标题本身以数字开头时（"22 Short Films ..."），不带前缀的比较才能命中。
func (m Matcher) sameName(name, title string) bool {
	ext := m.mediaExt()
	if !strings.HasSuffix(name, ext) {
		return false
	}
	want := lower(strings.TrimSpace(title))
	raw := strings.TrimSpace(strings.TrimSuffix(name, ext))
	if lower(raw) == want {
		return true
	}
	stem, _ := m.Stem(name)
	return lower(stem) == want
}

// Stem 去掉序号前缀与媒体后缀，得到用于精确比较的名字。
// 不带媒体后缀的文件名不符合命名约定，返回 ok=false（不做猜测）。
func (m Matcher) Stem(name string) (string, bool) {
	ext := m.mediaExt()
	if !strings.HasSuffix(name, ext) {
		return "", false
	}
	stem := strings.TrimSuffix(name, ext)
	stem = indexPrefixRE.ReplaceAllString(stem, "")
	return strings.TrimSpace(stem), true
}

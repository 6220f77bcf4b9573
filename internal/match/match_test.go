package match

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/epguide/internal/domain"
)

func TestMatch_TieBreakFirstWinsDefinite(t *testing.T) {
	names := []string{"Bart the Daredevil.m4v", "Bart Gets Hit.m4v"}
	got := Matcher{}.Match("Bart the Daredevil", names)
	want := Result{Outcome: domain.OutcomeDefinite, File: "Bart the Daredevil.m4v", Score: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("结果不符合预期 (-want +got):\n%s", diff)
	}
}

func TestMatch_TieKeepsFirstOccurrence(t *testing.T) {
	// 两个候选同分（各命中 1 个词）：保留先出现的。
	names := []string{"01 Lisa Alone.m4v", "02 Lisa Together.m4v"}
	got := Matcher{}.Match("Lisa the Vegetarian", names)
	if got.Outcome != domain.OutcomeFuzzy || got.File != "01 Lisa Alone.m4v" || got.Score != 1 {
		t.Fatalf("同分时应保留首个候选：%+v", got)
	}
}

func TestMatch_NoSharedTokensIsNone(t *testing.T) {
	got := Matcher{}.Match("Space Pilot 3000", []string{"Unrelated Name.m4v"})
	if got.Outcome != domain.OutcomeNone || got.Matched() {
		t.Fatalf("期望 none，实际 %+v", got)
	}
	if got.File != "" {
		t.Fatalf("none 时不应给出文件：%q", got.File)
	}
}

func TestMatch_FuzzyAfterStopWords(t *testing.T) {
	names := []string{"01 Homers Enemy.m4v", "02 Grift of the Magi.m4v"}
	m := Matcher{}
	tokens := Tokens("The Grift of the Magi")

	c0, _ := m.Score(tokens, names[0])
	c1, _ := m.Score(tokens, names[1])
	if c0.Score != 0 {
		t.Fatalf("期望第一个候选得 0 分，实际 %d", c0.Score)
	}
	if c1.Score < 2 {
		t.Fatalf("期望第二个候选至少 2 分，实际 %d", c1.Score)
	}

	got := m.Match("The Grift of the Magi", names)
	if got.Outcome != domain.OutcomeFuzzy || got.File != names[1] {
		t.Fatalf("期望 fuzzy 命中 %q，实际 %+v", names[1], got)
	}
}

func TestMatch_IndexPrefixStrippedForDefinite(t *testing.T) {
	cases := []struct {
		name  string
		title string
	}{
		{name: "01 Homers Enemy.m4v", title: "homers enemy"},
		{name: "0712 - Bart Sells His Soul.m4v", title: "Bart Sells His Soul"},
		{name: "22 Short Films About Springfield.m4v", title: "22 Short Films About Springfield"},
	}
	for _, tc := range cases {
		got := Matcher{}.Match(tc.title, []string{tc.name})
		if got.Outcome != domain.OutcomeDefinite {
			t.Fatalf("期望 definite：name=%q title=%q got=%+v", tc.name, tc.title, got)
		}
	}
}

func TestMatch_UnconventionalNameIsNone(t *testing.T) {
	// 不带媒体后缀：不符合命名约定，不做猜测。
	for _, name := range []string{"Bart the Daredevil.avi", "Bart the Daredevil.srt", "Bart the Daredevil poster.jpg"} {
		got := Matcher{}.Match("Bart the Daredevil", []string{name})
		if got.Outcome != domain.OutcomeNone || got.File != "" {
			t.Fatalf("期望 none：name=%q got=%+v", name, got)
		}
	}
}

func TestMatch_SidecarNeverBeatsMedia(t *testing.T) {
	names := []string{"01 Bart.m4v", "Bart the Daredevil poster.jpg", "Bart the Daredevil.srt"}
	got := Matcher{}.Match("Bart the Daredevil", names)
	want := Result{Outcome: domain.OutcomeFuzzy, File: "01 Bart.m4v", Score: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("结果不符合预期 (-want +got):\n%s", diff)
	}
}

func TestScore_NonMediaIsNotCandidate(t *testing.T) {
	m := Matcher{}
	for _, name := range []string{"Bart.m4v.txt", "Bart.jpg", "Bart"} {
		if _, ok := m.Score(Tokens("Bart"), name); ok {
			t.Fatalf("%q 不应成为候选", name)
		}
	}
}

func TestMatch_EmptyAndNotesOnly(t *testing.T) {
	if got := (Matcher{}).Match("Anything", nil); got.Outcome != domain.OutcomeNone {
		t.Fatalf("空目录应得到 none：%+v", got)
	}
	notes := []string{"Bart the Daredevil.m4v.txt", "readme.txt"}
	if got := (Matcher{}).Match("Bart the Daredevil", notes); got.Outcome != domain.OutcomeNone {
		t.Fatalf("只有 note 的目录应得到 none：%+v", got)
	}
}

func TestMatch_DeterministicAndNoMutation(t *testing.T) {
	names := []string{"03 Flaming Moes.m4v", "03 Flaming Moes.m4v.txt", "04 Moe Letter Blues.m4v", "05 Moe Baby Blues.m4v"}
	orig := append([]string(nil), names...)

	first := Matcher{}.Match("Moe Baby Blues", names)
	for i := 0; i < 20; i++ {
		if got := (Matcher{}).Match("Moe Baby Blues", names); got != first {
			t.Fatalf("第 %d 次结果不一致：%+v vs %+v", i, got, first)
		}
	}
	if first.File != "05 Moe Baby Blues.m4v" || first.Outcome != domain.OutcomeDefinite {
		t.Fatalf("结果不符合预期：%+v", first)
	}
	if diff := cmp.Diff(orig, names); diff != "" {
		t.Fatalf("Match 不应修改输入 (-orig +now):\n%s", diff)
	}
}

func TestScore_RepeatedTokensCountEachTime(t *testing.T) {
	c, ok := Matcher{}.Score(Tokens("Bart"), "Bart Bart Bart.m4v")
	if !ok || c.Score != 3 {
		t.Fatalf("重复词应逐次计数：%+v ok=%v", c, ok)
	}
}

func TestTokens_StopWordsAndCase(t *testing.T) {
	got := Tokens("The Call of the SIMPSONS and Friends")
	want := TokenSet{"call": {}, "simpsons": {}, "friends": {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("词集合不符合预期 (-want +got):\n%s", diff)
	}
}

func TestMatcher_CustomExtensions(t *testing.T) {
	m := Matcher{MediaExt: ".mkv", NoteExt: ".nfo"}
	names := []string{"Lisa's Wedding.mkv.nfo", "Lisa's Wedding.mkv"}
	got := m.Match("Lisa's Wedding", names)
	if got.Outcome != domain.OutcomeDefinite || got.File != "Lisa's Wedding.mkv" {
		t.Fatalf("自定义后缀匹配失败：%+v", got)
	}
}

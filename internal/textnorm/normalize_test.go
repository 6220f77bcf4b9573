package textnorm

import (
	"strings"
	"testing"
)

func TestNormalize_Rules(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Bart&amp;Lisa&#147;s Day&#148;", want: `Bart&Lisa"s Day"`},
		{in: "  Bart   the\nDaredevil  ", want: "Bart theDaredevil"},
		{in: "Bart \n the Daredevil", want: "Bart the Daredevil"},
		{in: "Itchy &amp Scratchy", want: "Itchy & Scratchy"},
		{in: "&quot;Quoted&quot;", want: `"Quoted"`},
		{in: "“Curly”", want: `"Curly"`},
		{in: "&amp;amp;", want: "&"},
		{in: "\tTab kept\t", want: "\tTab kept\t"},
		{in: "", want: ""},
		{in: "     ", want: ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q)=%q，期望 %q", tc.in, got, tc.want)
		}
	}
}

// normalizeSeeds 覆盖实体叠套、多余空白和智能引号。
var normalizeSeeds = []string{
	"Bart&amp;Lisa&#147;s Day&#148;",
	"&amp;amp;quot;x&amp;#148;",
	"a  \n  b   c\n\n",
	"  leading and trailing  ",
	"&amp;&amp;&amp",
	"no change",
	"\n\n",
	"x &#147; &#148; “ ” y",
}

func checkNormalized(t *testing.T, in string) {
	t.Helper()
	once := Normalize(in)
	twice := Normalize(once)
	if once != twice {
		t.Fatalf("不幂等：in=%q once=%q twice=%q", in, once, twice)
	}
	if strings.Contains(once, "\n") {
		t.Fatalf("输出仍含换行：%q", once)
	}
	if strings.Contains(once, "  ") {
		t.Fatalf("输出仍含连续空格：%q", once)
	}
}

func TestNormalize_IdempotentAndClean(t *testing.T) {
	for _, in := range normalizeSeeds {
		checkNormalized(t, in)
	}
}

func FuzzNormalize(f *testing.F) {
	for _, in := range normalizeSeeds {
		f.Add(in)
	}
	f.Fuzz(func(t *testing.T, in string) {
		checkNormalized(t, in)
	})
}

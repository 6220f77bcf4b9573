package textnorm

import "strings"

// 页面中残留的旧式实体：只解码这一固定集合，其余原样保留。
// “ ” 是 x/net/html 把 &#147; / &#148; 解码后的结果，与实体形式同等对待。
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&amp", "&",
	"&quot;", `"`,
	"&#147;", `"`,
	"&#148;", `"`,
	"“", `"`,
	"”", `"`,
)

// Normalize 规范化一段抽取出的文本。
//
// 顺序固定：
// 1) 去掉换行
// 2) 连续空格折叠为一个
// 3) 解码固定实体集合（重复到不再变化，保证幂等：&amp;amp; => &）
// 4) 只裁剪首尾的 ' '（不是泛化空白）
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = collapseSpaces(s)
	for {
		d := entityReplacer.Replace(s)
		if d == s {
			break
		}
		s = d
	}
	return strings.Trim(s, " ")
}

func collapseSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

package extract

import "github.com/John-Robertt/epguide/internal/markup"

// walkState 是遍历器的两个状态。
type walkState int

const (
	// stateScanning：在当前容器的子节点间线性前进。
	stateScanning walkState = iota
	// stateDescended：位于某个已消费包裹元素内部（进入时游标归零）。
	stateDescended
)

func (s walkState) String() string {
	switch s {
	case stateDescended:
		return "descended"
	default:
		return "scanning"
	}
}

type frame struct {
	container markup.Node
	cursor    int
}

// walker 是“当前扫描根 + 游标”的显式遍历器。
//
// 页面里的包裹元素常常缺闭合标签，解析后本应并列的兄弟被串成一条嵌套链。
// 消费完一个包裹元素后调用 Descend，把扫描根切换到该元素、游标归零，
// 相当于把下一层当作缺失的“下一个兄弟”。
//
// 下一层耗尽后弹回上一层，从被消费元素之后继续：
// 对嵌套链来说上一层已无后续，结果与逐层下潜一致；
// 对已被解析器正确闭合的并列结构，也能走到每个兄弟。每个节点至多访问一次。
type walker struct {
	stack []frame
}

func newWalker(root markup.Node) *walker {
	return &walker{stack: []frame{{container: root}}}
}

// Next 返回下一个待识别的子节点；全部耗尽时返回 false。
func (w *walker) Next() (markup.Node, bool) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		children := top.container.Children()
		if top.cursor < len(children) {
			n := children[top.cursor]
			top.cursor++
			return n, true
		}
		w.stack = w.stack[:len(w.stack)-1]
	}
	return nil, false
}

// Descend 把扫描根重置为 n（刚由 Next 返回的元素），游标归零。
func (w *walker) Descend(n markup.Node) {
	if n == nil {
		return
	}
	w.stack = append(w.stack, frame{container: n})
}

// State 返回当前状态：位于 body 层为 scanning，否则为 descended。
func (w *walker) State() walkState {
	if len(w.stack) > 1 {
		return stateDescended
	}
	return stateScanning
}

// Depth 返回当前下潜层数，body 为 0。
func (w *walker) Depth() int { return len(w.stack) - 1 }

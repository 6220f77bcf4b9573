package markup

import "strings"

// Kind 区分节点类型。注释、doctype 等一律归为 OtherNode（抽取时视为空）。
type Kind int

const (
	OtherNode Kind = iota
	ElementNode
	TextNode
)

// Node 是抽取器唯一依赖的只读树接口。
//
// 约束：
// - Tag 对元素返回小写标签名；非元素返回空串
// - Children 保持文档顺序，可能为空
// - Text 只对文本节点有意义（原始内容，未规范化）
type Node interface {
	Kind() Kind
	Tag() string
	Children() []Node
	Text() string
}

// Elem 构造一个内存中的元素节点（测试与合成文档使用）。
func Elem(tag string, children ...Node) Node {
	return &memNode{kind: ElementNode, tag: strings.ToLower(tag), children: children}
}

// Text 构造一个内存中的文本节点。
func Text(s string) Node {
	return &memNode{kind: TextNode, text: s}
}

type memNode struct {
	kind     Kind
	tag      string
	text     string
	children []Node
}

func (n *memNode) Kind() Kind       { return n.kind }
func (n *memNode) Tag() string      { return n.tag }
func (n *memNode) Children() []Node { return n.children }
func (n *memNode) Text() string     { return n.text }

// IsElement 判断 n 是否为指定标签的元素。
func IsElement(n Node, tag string) bool {
	return n != nil && n.Kind() == ElementNode && n.Tag() == tag
}

// FindChild 从 start 开始在 n 的直接子元素中查找第一个 tag 元素。
// start 按“子元素序号”计数（文本节点不占位），找不到返回 nil。
func FindChild(n Node, tag string, start int) Node {
	if n == nil {
		return nil
	}
	idx := 0
	for _, c := range n.Children() {
		if c.Kind() != ElementNode {
			continue
		}
		if idx >= start && c.Tag() == tag {
			return c
		}
		idx++
	}
	return nil
}

// FirstText 返回 n 的第一个直接文本子节点的原始内容；没有则返回空串。
func FirstText(n Node) string {
	if n == nil {
		return ""
	}
	for _, c := range n.Children() {
		if c.Kind() == TextNode {
			return c.Text()
		}
	}
	return ""
}

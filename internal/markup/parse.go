package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseError 表示字节流无法被解析为文档树（空输入、读取失败等）。
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e == nil || e.Err == nil {
		return "markup: parse failed"
	}
	return fmt.Sprintf("markup: parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse 把原始页面字节解析为 Node 树，返回的是文档根节点（其下通常是 html）。
//
// 解析由 goquery（x/net/html）完成；这里只做适配，不修补结构。
func Parse(b []byte) (Node, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("empty document")}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(doc.Nodes) == 0 || doc.Nodes[0] == nil {
		return nil, &ParseError{Err: fmt.Errorf("no root node")}
	}
	return FromHTML(doc.Nodes[0]), nil
}

// FromHTML 把 x/net/html 的节点包装为 Node。子节点按需包装，不复制文本。
func FromHTML(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return &htmlNode{n: n}
}

type htmlNode struct {
	n        *html.Node
	children []Node
	loaded   bool
}

func (h *htmlNode) Kind() Kind {
	switch h.n.Type {
	case html.ElementNode:
		return ElementNode
	case html.TextNode:
		return TextNode
	default:
		return OtherNode
	}
}

func (h *htmlNode) Tag() string {
	if h.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(h.n.Data)
}

func (h *htmlNode) Text() string {
	if h.n.Type != html.TextNode {
		return ""
	}
	return h.n.Data
}

// Children 的结果在首次调用后缓存；树本身只读，缓存不会过期。
func (h *htmlNode) Children() []Node {
	if h.loaded {
		return h.children
	}
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		h.children = append(h.children, &htmlNode{n: c})
	}
	h.loaded = true
	return h.children
}

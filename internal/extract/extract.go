package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/John-Robertt/epguide/internal/domain"
	"github.com/John-Robertt/epguide/internal/markup"
	"github.com/John-Robertt/epguide/internal/textnorm"
)

// WrapperTag 是承载一集表格的顶层包裹元素。
const WrapperTag = "p"

// MalformedDocumentError 表示文档树连最小结构（body）都没有。
// 这是抽取阶段唯一的硬失败，其它异常一律按“这里不是一集”跳过。
type MalformedDocumentError struct {
	Season int
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("season %d: malformed document: %s", e.Season, e.Reason)
}

// Extractor 把目录页文档树还原为有序的 Episode 序列。
//
// 约束：
// - 不修改节点；相同输入 => 相同输出
// - 跳过原因只写 debug 日志
type Extractor struct {
	Logger *slog.Logger
}

// Extract 按遍历顺序（文档顺序 + 下潜重同步）返回本季的所有集，不按编号排序。
func (x Extractor) Extract(season int, root markup.Node) ([]domain.Episode, error) {
	log := x.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	body := findBody(root)
	if body == nil {
		return nil, &MalformedDocumentError{Season: season, Reason: "no body element"}
	}

	episodes := make([]domain.Episode, 0, 32)
	tables := 0
	w := newWalker(body)
	for {
		n, ok := w.Next()
		if !ok {
			break
		}
		if n.Kind() != markup.ElementNode {
			continue
		}
		if markup.IsElement(n, "table") || markup.FindChild(n, "table", 0) != nil {
			tables++
		}

		ep, v := recognize(season, n)
		if v != verdictEpisode {
			log.Debug("skip element", "season", season, "tag", n.Tag(), "reason", v.String(), "depth", w.Depth(), "state", w.State().String())
		}
		if v.descends() {
			w.Descend(n)
		}
		if v == verdictEpisode {
			log.Debug("found episode", "season", season, "number", ep.Number, "title", ep.Title)
			episodes = append(episodes, ep)
		}
	}
	// 标准模式（<!DOCTYPE html>）下解析器会在 <table> 前闭合 <p>，表格不再挂在包裹元素下。
	if len(episodes) == 0 && tables > 0 {
		log.Warn("page has tables but no episode wrappers", "season", season, "tables", tables, "wrapper", WrapperTag)
	}
	return episodes, nil
}

// findBody 接受文档根（其下为 html）、html 元素或 body 本身。
func findBody(root markup.Node) markup.Node {
	if root == nil {
		return nil
	}
	if markup.IsElement(root, "body") {
		return root
	}
	if markup.IsElement(root, "html") {
		return markup.FindChild(root, "body", 0)
	}
	for _, c := range root.Children() {
		if markup.IsElement(c, "html") {
			return markup.FindChild(c, "body", 0)
		}
	}
	return nil
}

type verdict int

const (
	verdictEpisode verdict = iota
	verdictNotWrapper
	verdictNoTable
	verdictNoDataRow
	verdictNoLabel // 某些季用图片代替文字，属于已知情况
	verdictNoBold
	verdictNoTitle
	verdictNoDescription
)

func (v verdict) String() string {
	switch v {
	case verdictEpisode:
		return "episode"
	case verdictNotWrapper:
		return "not a wrapper"
	case verdictNoTable:
		return "no table"
	case verdictNoDataRow:
		return "no second data row"
	case verdictNoLabel:
		return "no label (non-textual entry)"
	case verdictNoBold:
		return "no bold label"
	case verdictNoTitle:
		return "empty title"
	case verdictNoDescription:
		return "no description cell"
	default:
		return "unknown"
	}
}

// descends 判断遍历器是否需要下潜到该元素：
// 只要包裹元素具备完整的表格形态，其后的集就可能被嵌套在它里面。
func (v verdict) descends() bool {
	switch v {
	case verdictNotWrapper, verdictNoTable, verdictNoDataRow:
		return false
	default:
		return true
	}
}

// recognize 尝试把一个元素识别为一集；失败时返回原因而不是错误。
func recognize(season int, n markup.Node) (domain.Episode, verdict) {
	if !markup.IsElement(n, WrapperTag) {
		return domain.Episode{}, verdictNotWrapper
	}
	table := markup.FindChild(n, "table", 0)
	if table == nil {
		return domain.Episode{}, verdictNoTable
	}

	// 第 0 行是表头；第 1 行是编号/标题 + 播出日期，第 2 行是简介。
	rows := tableRows(table)
	if len(rows) < 3 {
		return domain.Episode{}, verdictNoDataRow
	}
	head, desc := rows[1], rows[2]

	font := markup.FindChild(markup.FindChild(head, "td", 0), "font", 0)
	if font == nil {
		return domain.Episode{}, verdictNoLabel
	}
	label := markup.FindChild(font, "b", 0)
	if label == nil {
		return domain.Episode{}, verdictNoBold
	}

	ep := domain.Episode{
		Season: season,
		Number: parenToken(textnorm.Normalize(markup.FirstText(label))),
		Title:  textnorm.Normalize(markup.FirstText(markup.FindChild(label, "a", 0))),
		Aired:  labelText(markup.FindChild(head, "td", 1)),
	}
	if ep.Title == "" {
		return domain.Episode{}, verdictNoTitle
	}

	cell := markup.FindChild(desc, "td", 1)
	if cell == nil {
		return domain.Episode{}, verdictNoDescription
	}
	ep.Description = Flatten(cell)
	return ep, verdictEpisode
}

// tableRows 收集表格的 tr 行：直接子行，以及 thead/tbody/tfoot 分节内的行（按文档顺序）。
func tableRows(table markup.Node) []markup.Node {
	var rows []markup.Node
	for _, c := range table.Children() {
		if c.Kind() != markup.ElementNode {
			continue
		}
		switch c.Tag() {
		case "tr":
			rows = append(rows, c)
		case "thead", "tbody", "tfoot":
			for _, r := range c.Children() {
				if markup.IsElement(r, "tr") {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

// labelText 取单元格内 font > b 的首个文本（缺任何一层都返回空串）。
func labelText(cell markup.Node) string {
	b := markup.FindChild(markup.FindChild(cell, "font", 0), "b", 0)
	return textnorm.Normalize(markup.FirstText(b))
}

// parenToken 返回第一对括号之间的内容，例如 "(7F01) " => "7F01"。
func parenToken(s string) string {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return ""
	}
	end := strings.IndexByte(s[open+1:], ')')
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(s[open+1 : open+1+end])
}

// Flatten 把节点展开为文本：文本节点取规范化后的内容，元素递归展开子节点并以单个空格连接。
// 空片段不参与连接，避免产生连续空格；无子节点的元素得到空串。
func Flatten(n markup.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case markup.TextNode:
		return textnorm.Normalize(n.Text())
	case markup.ElementNode:
	default:
		return ""
	}

	children := n.Children()
	if len(children) == 0 {
		return ""
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		if s := Flatten(c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

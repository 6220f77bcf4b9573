package domain

import "fmt"

// Episode 是从目录页抽取出的一集（抽取后不可变）。
//
// 不变量：Title 非空；Season 由调用方给出，不从页面解析。
type Episode struct {
	Season      int    `json:"season"`
	Number      string `json:"number"` // 页面括号内的编号，保留字符串（有的季用非数字编码）
	Title       string `json:"title"`
	Aired       string `json:"aired"`
	Description string `json:"description"`
}

// SeasonLabel 返回两位补零的季号（目录名 "Season 07" 使用）。
func SeasonLabel(season int) string {
	return fmt.Sprintf("%02d", season)
}

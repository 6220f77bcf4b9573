package domain

import "sort"

// SeasonListing 是 list 命令的单季输出：只抽取，不匹配、不写入。
type SeasonListing struct {
	Season    int       `json:"season"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	ErrorCode string    `json:"error_code"`
	ErrorMsg  string    `json:"error_msg"`
	Episodes  []Episode `json:"episodes"`
}

// SortListings 按季号稳定排序。
func SortListings(ls []SeasonListing) {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Season < ls[j].Season })
}

// CountEpisodes 返回所有季的集数合计。
func CountEpisodes(ls []SeasonListing) int {
	n := 0
	for _, l := range ls {
		n += len(l.Episodes)
	}
	return n
}

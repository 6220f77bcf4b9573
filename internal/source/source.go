package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Source 按季号取回目录页原始字节。
//
// 约束：
// - Fetch 不做缓存（缓存由上层 cache.Store 统一处理）
// - 返回的 pageURL 用于 report 追溯；URL 在不发请求时给出同一地址（缓存命中时使用）
type Source interface {
	URL(season int) string
	Fetch(ctx context.Context, season int, c *http.Client) (html []byte, pageURL string, err error)
}

var _ Source = HTTPSource{}

// HTTPSource 请求 GET {URIBase}{season}{URISuffix}，目标为 Host:Port。
type HTTPSource struct {
	Host      string
	Port      int
	URIBase   string // 例如 "/episodeguide/season"
	URISuffix string // 例如 ".html"
	Scheme    string // 默认 http
}

// URL 返回某一季的页面地址。
func (s HTTPSource) URL(season int) string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := s.Host
	if s.Port > 0 && !defaultPort(scheme, s.Port) {
		host = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	}
	return fmt.Sprintf("%s://%s%s%d%s", scheme, host, s.URIBase, season, s.URISuffix)
}

func defaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

func (s HTTPSource) Fetch(ctx context.Context, season int, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	if season <= 0 {
		return nil, "", fmt.Errorf("season 必须为正整数，实际 %d", season)
	}
	if strings.TrimSpace(s.Host) == "" {
		return nil, "", errors.New("source host 不能为空")
	}

	pageURL := s.URL(season)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, pageURL, &TransportError{URL: pageURL, Err: err}
	}
	// 站点按虚拟主机区分，显式带上 Host（端口非默认时 URL 中已包含）。
	req.Host = s.Host

	resp, err := c.Do(req)
	if err != nil {
		return nil, pageURL, &TransportError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, pageURL, &TransportError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pageURL, &TransportError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}
	return b, pageURL, nil
}

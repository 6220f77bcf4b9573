package source

import (
	"fmt"
	"strings"
)

// TransportError 表示取页失败：连接错误（Err 非空）或非 2xx 状态码。
// 只影响当前季，不影响其它季。
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.Err != nil {
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("GET %s: server returned HTTP %d", strings.TrimSpace(e.URL), e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

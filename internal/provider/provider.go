package provider

import (
	"context"
	"net/http"

	"github.com/John-Robertt/ttlookup/internal/domain"
)

// Provider 把“第三方接口的差异”限制在 provider 包内部；核心流程只依赖统一接口与稳定的 NormalizedResult。
//
// 约束：
// - Fetch 不做缓存、不做重试、不做限速（网络策略由 httpx 统一实现）
// - Parse 必须是纯函数：相同输入 => 相同输出
// - 载荷不完整（成功标记缺失、关键字段为空）必须返回错误，由 Chain 触发回退
type Provider interface {
	Name() string
	Fetch(ctx context.Context, videoURL string, c *http.Client) (body []byte, err error)
	Parse(body []byte) (domain.NormalizedResult, error)
}

package tikwm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/ttlookup/internal/domain"
	"github.com/John-Robertt/ttlookup/internal/infra/httpx"
	providerx "github.com/John-Robertt/ttlookup/internal/provider"
)

const DefaultBaseURL = "https://tikwm.com"

// Provider 是首选 provider：tikwm 的公开查询接口。
//
// 约束：
// - 必须带浏览器 User-Agent，否则接口会直接拒绝
// - 只有 code==0 且 data 存在才算可用；其余一律返回错误让 Chain 回退
type Provider struct {
	// BaseURL 允许切换到镜像域名（例如 https://www.tikwm.com）；为空时使用 DefaultBaseURL。
	BaseURL string
}

func (Provider) Name() string { return "tikwm" }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// Fetch 请求 {base}/api/?url=<videoURL>。
func (p Provider) Fetch(ctx context.Context, videoURL string, c *http.Client) ([]byte, error) {
	if videoURL == "" {
		return nil, errors.New("videoURL 不能为空")
	}
	u := p.baseURL() + "/api/?url=" + url.QueryEscape(videoURL)
	h := http.Header{}
	h.Set("User-Agent", httpx.BrowserUA())
	return providerx.GetBody(ctx, c, u, h)
}

type response struct {
	Code *int   `json:"code"`
	Msg  string `json:"msg"`
	Data *data  `json:"data"`
}

type data struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Play   string `json:"play"`
	Music  string `json:"music"`
	Cover  string `json:"cover"`
	Author struct {
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Duration     providerx.FlexString `json:"duration"`
	PlayCount    providerx.FlexString `json:"play_count"`
	DiggCount    providerx.FlexString `json:"digg_count"`
	CommentCount providerx.FlexString `json:"comment_count"`
	ShareCount   providerx.FlexString `json:"share_count"`
}

// Parse 把 tikwm 的响应映射为 NormalizedResult。
func (p Provider) Parse(body []byte) (domain.NormalizedResult, error) {
	var r response
	if err := providerx.DecodeJSON(body, &r); err != nil {
		return domain.NormalizedResult{}, err
	}
	if r.Code == nil || *r.Code != 0 {
		return domain.NormalizedResult{}, &providerx.MissingDataError{Provider: p.Name(), Field: "code=0", Msg: r.Msg}
	}
	if r.Data == nil {
		return domain.NormalizedResult{}, &providerx.MissingDataError{Provider: p.Name(), Field: "data", Msg: r.Msg}
	}

	d := r.Data
	base := p.baseURL() + "/"
	// tikwm 的媒体地址有时是站内相对路径（/video/media/play/...），需要补全域名。
	return domain.NormalizedResult{
		Title:     d.Title,
		Author:    d.Author.UniqueID,
		Video:     []string{providerx.ResolveURL(base, d.Play)},
		Audio:     []string{providerx.ResolveURL(base, d.Music)},
		Thumbnail: providerx.ResolveURL(base, d.Cover),
		Duration:  d.Duration.String(),
		Views:     d.PlayCount.String(),
		Likes:     d.DiggCount.String(),
		Comments:  d.CommentCount.String(),
		Shares:    d.ShareCount.String(),
	}, nil
}

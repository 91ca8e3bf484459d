package tiklydown

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/ttlookup/internal/domain"
	providerx "github.com/John-Robertt/ttlookup/internal/provider"
)

const DefaultBaseURL = "https://api.tiklydown.eu.org"

// Provider 是备用 provider：tiklydown 的下载接口。
// 不带任何额外请求头；只有拿到无水印视频地址才算可用。
type Provider struct {
	BaseURL string
}

func (Provider) Name() string { return "tiklydown" }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// Fetch 请求 {base}/api/download?url=<videoURL>。
func (p Provider) Fetch(ctx context.Context, videoURL string, c *http.Client) ([]byte, error) {
	if videoURL == "" {
		return nil, errors.New("videoURL 不能为空")
	}
	u := p.baseURL() + "/api/download?url=" + url.QueryEscape(videoURL)
	return providerx.GetBody(ctx, c, u, nil)
}

type response struct {
	Title  string `json:"title"`
	Author *struct {
		Name string `json:"name"`
	} `json:"author"`
	Video *struct {
		NoWatermark string               `json:"noWatermark"`
		Cover       string               `json:"cover"`
		Duration    providerx.FlexString `json:"duration"`
	} `json:"video"`
	Music *struct {
		PlayURL string `json:"play_url"`
	} `json:"music"`
	Stats *struct {
		PlayCount    providerx.FlexString `json:"playCount"`
		DiggCount    providerx.FlexString `json:"diggCount"`
		CommentCount providerx.FlexString `json:"commentCount"`
		ShareCount   providerx.FlexString `json:"shareCount"`
	} `json:"stats"`
}

// Parse 把 tiklydown 的响应映射为 NormalizedResult。
func (p Provider) Parse(body []byte) (domain.NormalizedResult, error) {
	var r response
	if err := providerx.DecodeJSON(body, &r); err != nil {
		return domain.NormalizedResult{}, err
	}
	if r.Video == nil || strings.TrimSpace(r.Video.NoWatermark) == "" {
		return domain.NormalizedResult{}, &providerx.MissingDataError{Provider: p.Name(), Field: "video.noWatermark"}
	}

	res := domain.NormalizedResult{
		Title:     r.Title,
		Video:     []string{r.Video.NoWatermark},
		Thumbnail: r.Video.Cover,
		Duration:  r.Video.Duration.String(),
	}
	if r.Author != nil {
		res.Author = r.Author.Name
	}
	if r.Music != nil {
		res.Audio = []string{r.Music.PlayURL}
	}
	if r.Stats != nil {
		res.Views = r.Stats.PlayCount.String()
		res.Likes = r.Stats.DiggCount.String()
		res.Comments = r.Stats.CommentCount.String()
		res.Shares = r.Stats.ShareCount.String()
	}
	return res, nil
}

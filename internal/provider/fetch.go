package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxBody 限制单次 provider 响应的读取量；正常的元数据 JSON 远小于该值。
const maxBody = 4 << 20

// GetBody 发起 GET 请求并返回 2xx 响应体。
// header 中的值会覆盖默认值；为空时不额外设置任何头。
func GetBody(ctx context.Context, c *http.Client, u string, header http.Header) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// DecodeJSON 把 body 解析到 v。
// 若 body 看起来是 HTML（拦截页/维护页），返回 *BlockedError 而不是晦涩的 JSON 语法错误。
func DecodeJSON(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("响应体为空")
	}
	if trimmed[0] == '<' {
		return &BlockedError{Reason: htmlTitle(trimmed)}
	}
	return json.Unmarshal(trimmed, v)
}

// htmlTitle 取页面 <title>（goquery 不执行 JS，只读静态文本）。
func htmlTitle(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	title := normSpace(doc.Find("title").First().Text())
	if title == "" {
		title = normSpace(doc.Find("h1").First().Text())
	}
	return title
}

// ResolveURL 把 provider 返回的相对链接补全为绝对 URL。
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

package domain

// LookupRequest 是一次查询的唯一输入：已通过校验的 TikTok URL（原样保留，不做规范化）。
type LookupRequest struct {
	URL string
}

const (
	DefaultTitle  = "TikTok Video"
	DefaultAuthor = "Unknown"
)

// NormalizedResult 是对外统一的结果结构，与具体 provider 的响应格式无关。
//
// 约束：
// - 计数类字段一律以字符串输出（provider 可能给数字也可能给字符串）
// - Video/Audio 不允许为 null：没有时输出 []
type NormalizedResult struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Video     []string `json:"video"`
	Audio     []string `json:"audio"`
	Thumbnail string   `json:"thumbnail"`
	Duration  string   `json:"duration"`
	Views     string   `json:"views"`
	Likes     string   `json:"likes"`
	Comments  string   `json:"comments"`
	Shares    string   `json:"shares"`
}

// Finalize 补齐默认值：标题/作者缺失时用占位文本，媒体列表去掉空串且保证非 nil。
func (r *NormalizedResult) Finalize() {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Author == "" {
		r.Author = DefaultAuthor
	}
	r.Video = compactURLs(r.Video)
	r.Audio = compactURLs(r.Audio)
}

func compactURLs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

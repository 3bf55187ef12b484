package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/iceymoss/go-blog/internal/repo"
	"github.com/iceymoss/go-blog/pkg/db/objects"
	"github.com/iceymoss/go-blog/pkg/utils"
)

func fmtTime(t time.Time) string {
	return t.In(utils.ChinaLocation).Format("2006-01-02 15:04")
}

//go:embed templates/*.tmpl
var templateFS embed.FS

// Pagination 首屏分页信息
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// BootstrapData 服务端渲染的首屏数据，整体序列化后嵌进页面
// degraded=true 表示服务端取数失败，客户端水合后需要自行重新拉取
// 集合字段不加 omitempty：降级渲染时客户端要拿到空数组而不是缺失的键
type BootstrapData struct {
	Page       string              `json:"page"` // home / detail / admin
	Articles   []*repo.ArticleItem `json:"articles"`
	Pagination *Pagination         `json:"pagination,omitempty"`
	TagCloud   []repo.TagCount     `json:"tagCloud"`
	FilterTag  string              `json:"filterTag,omitempty"`
	Sort       string              `json:"sort,omitempty"`
	Article    *repo.ArticleItem   `json:"article,omitempty"`
	ArticleID  uint64              `json:"articleId,omitempty"`
	Comments   []*objects.Comment  `json:"comments"`
	Degraded   bool                `json:"degraded"`
}

// Renderer 把首屏数据渲染成完整 HTML 文档
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"fmtTime": fmtTime,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// pageView 模板入参
type pageView struct {
	Title     string
	Data      *BootstrapData
	Bootstrap template.JS
}

// RenderPage 输出一个 HTML 文档
// 首屏数据 JSON 里的 < 会被转义成 <，防止提前闭合 script 标签
func (r *Renderer) RenderPage(w io.Writer, data *BootstrapData) error {
	// 集合一律序列化成数组，客户端不用判空
	if data.Articles == nil {
		data.Articles = []*repo.ArticleItem{}
	}
	if data.TagCloud == nil {
		data.TagCloud = []repo.TagCount{}
	}
	if data.Comments == nil {
		data.Comments = []*objects.Comment{}
	}

	// encoding/json 默认开启 HTML 转义，< > & 都会转成 \u00xx
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal bootstrap: %w", err)
	}

	title := "SSR 博客系统"
	if data.Page == "detail" && data.Article != nil {
		title = data.Article.Title + " - SSR 博客"
	}

	return r.tmpl.ExecuteTemplate(w, "layout.tmpl", &pageView{
		Title:     title,
		Data:      data,
		Bootstrap: template.JS(raw),
	})
}

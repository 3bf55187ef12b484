package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	zLog "github.com/iceymoss/go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

const aiTimeout = 60 * time.Second

// AI 写作助手：根据标题和关键词生成 Markdown 草稿 + 摘要
// 没配置 API KEY 时返回示例内容，功能不至于彻底不可用
type AI struct {
	client  *openai.Client
	model   string
	enabled bool
}

func NewAI(apiKey, model string) *AI {
	if apiKey == "" {
		return &AI{enabled: false}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &AI{client: &client, model: model, enabled: true}
}

type generateReq struct {
	Title    string `json:"title"`
	Keywords string `json:"keywords"`
}

// Generate POST /api/ai/generate 管理员专用
func (h *AI) Generate(c *gin.Context) {
	var req generateReq
	_ = c.ShouldBindJSON(&req)

	title := req.Title
	if title == "" {
		title = "未命名文章"
	}
	keywords := req.Keywords
	if keywords == "" {
		keywords = "技术, 博客"
	}

	if !h.enabled {
		c.JSON(http.StatusOK, gin.H{
			"content": fmt.Sprintf("> 提示：当前未配置 OpenAI API KEY，下面是示例正文。\n\n# %s\n\n"+
				"这是 AI 写作助手的示例内容。你可以：\n\n- 在后台直接编辑此内容\n"+
				"- 在服务器配置中填入 API KEY 获得真实 AI 生成\n\n支持 **Markdown**、代码块等格式。", title),
			"summary": "这是 AI 写作助手的示例摘要，配置 OPENAI_API_KEY 后即可获得真实生成结果。",
		})
		return
	}

	prompt := fmt.Sprintf("你是一个中文技术博客写作助手。根据下面的标题和关键词，"+
		"生成一篇适合发布在博客上的文章正文（使用 Markdown 格式），并在开头给出一句不超过 60 字的中文摘要。\n"+
		"标题: %s\n关键词: %s", title, keywords)

	ctx, cancel := context.WithTimeout(c.Request.Context(), aiTimeout)
	defer cancel()

	resp, err := h.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(h.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("你是一个专业的中文技术博客写作助手。"),
			openai.UserMessage(prompt),
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		zLog.Error("ai generate failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "AI 生成失败"})
		return
	}

	content, summary := splitDraft(resp.Choices[0].Message.Content)
	c.JSON(http.StatusOK, gin.H{"content": content, "summary": summary})
}

// splitDraft 第一行作为摘要（去掉开头的 # 号，截到 80 字），其余作为正文
func splitDraft(full string) (content, summary string) {
	lines := strings.SplitN(full, "\n", 2)
	summary = strings.TrimLeft(lines[0], "# ")
	if runes := []rune(summary); len(runes) > 80 {
		summary = string(runes[:80])
	}
	if len(lines) > 1 {
		content = strings.TrimSpace(lines[1])
	}
	if content == "" {
		content = full
	}
	return content, summary
}

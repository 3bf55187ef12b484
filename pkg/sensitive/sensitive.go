package sensitive

import (
	"github.com/importcjj/sensitive"
)

// Word 评论内容的敏感词过滤器，词库一行一个词
type Word struct {
	Filter *sensitive.Filter
}

// NewWord 从词库文件构建过滤器
func NewWord(dictPath string) (*Word, error) {
	filter := sensitive.New()
	if err := filter.LoadWordDict(dictPath); err != nil {
		return nil, err
	}
	return &Word{Filter: filter}, nil
}

// Validate 内容干净返回 (true, "")，否则返回 false 和第一个命中的词
func (w *Word) Validate(content string) (bool, string) {
	return w.Filter.Validate(content)
}

// Replace 把命中的敏感词替换成指定字符
func (w *Word) Replace(content string, replChar rune) string {
	return w.Filter.Replace(content, replChar)
}

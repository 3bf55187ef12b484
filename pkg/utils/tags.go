package utils

import (
	"strings"
)

// NormalizeTags 把数据库里逗号拼接的标签字段拆成结构化列表
// 去掉空项、首尾空格和重复项，顺序保持首次出现的存储顺序
func NormalizeTags(str string) []string {
	tags := make([]string, 0)
	if str == "" {
		return tags
	}
	seen := make(map[string]struct{})
	for _, t := range strings.Split(str, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// JoinTags 把标签列表拼回逗号分隔的存储格式
// 注意：标签本身含逗号时会在读取侧被拆开，这是存储格式的已知限制，不做转义
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		cleaned = append(cleaned, t)
	}
	return strings.Join(cleaned, ",")
}

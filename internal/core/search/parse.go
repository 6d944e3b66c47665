package search

import (
	"regexp"
	"strings"

	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// normalizeLabel 去掉引號、標點與大小寫
func normalizeLabel(reply string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(reply), "\"'`.:!* \n\t"))
}

// ParseIngredientList 每行一個食材；"none" 表示沒有食材
func ParseIngredientList(reply string) []string {
	body := common.StripCodeFences(reply)
	if normalizeLabel(body) == "none" {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	for _, line := range strings.Split(body, "\n") {
		name := strings.ToLower(strings.TrimSpace(bulletPattern.ReplaceAllString(line, "")))
		if name == "" || name == "none" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// ParseSearchTerm 取第一行並去掉引號
func ParseSearchTerm(reply string) string {
	body := strings.TrimSpace(common.StripCodeFences(reply))
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(body), "\"'`."))
}

// CleanSQL 去掉程式碼區塊與前後空白
func CleanSQL(reply string) string {
	return strings.TrimSpace(common.StripCodeFences(reply))
}

package catalog

import (
	"regexp"
	"strings"

	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var (
	stepMarkerPattern  = regexp.MustCompile(`\d+[.)]\s+`)
	leadWordPattern    = regexp.MustCompile(`(?i)\b(?:To|For|In|Place|Add|Mix|Combine|Heat|Cook|Bake|Roast|Fry|Simmer|Boil|Preheat|Season|Garnish|Serve|Assemble|Layer|Divide|Scatter|Drizzle|Tuck|Warm|Stir|Toss|Spread|Drain|Cut|Slice|Chop|Peel|Remove)\b`)
	sentenceEndPattern = regexp.MustCompile(`[.!?]\s+[A-Z]`)
)

// 超過此長度的句子自成一段
const longSentence = 150

// FormatInstructions 將步驟文字重新排版：編號步驟、段落開頭動詞、句子分組，都不適用時原樣返回
func FormatInstructions(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if steps := splitNumbered(text); len(steps) > 0 {
		return strings.Join(steps, "\n\n")
	}
	if sections := splitSections(text); len(sections) > 0 {
		return strings.Join(sections, "\n\n")
	}
	if paragraphs := groupSentences(text); len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}
	return text
}

// splitNumbered 依 "1. " / "2) " 切分；第一個編號前的文字自成一步
func splitNumbered(text string) []string {
	locs := stepMarkerPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var steps []string
	if lead := strings.TrimSpace(text[:locs[0][0]]); lead != "" {
		steps = append(steps, lead)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if step := strings.TrimSpace(text[loc[0]:end]); step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}

// splitSections 在每個開頭動詞前切段，多句的段落再以換行分句
func splitSections(text string) []string {
	locs := leadWordPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	bounds := make([]int, 0, len(locs)+2)
	bounds = append(bounds, 0)
	for _, loc := range locs {
		if loc[0] > 0 {
			bounds = append(bounds, loc[0])
		}
	}
	bounds = append(bounds, len(text))

	var sections []string
	for i := 0; i+1 < len(bounds); i++ {
		section := strings.TrimSpace(text[bounds[i]:bounds[i+1]])
		if section == "" {
			continue
		}
		if sentences := splitSentences(section); len(sentences) > 1 {
			section = strings.Join(sentences, "\n")
		}
		sections = append(sections, section)
	}
	return sections
}

// groupSentences 每兩句一段，過長的句子提早斷段
func groupSentences(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return nil
	}

	var paragraphs, current []string
	for _, s := range sentences {
		current = append(current, s)
		if len(current) >= 2 || len(s) > longSentence {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return paragraphs
}

// splitSentences 在句尾標點之後、下一個大寫字母之前切開
func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1] - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// InferDifficulty 依總時間與步驟數推斷難度
func InferDifficulty(instructions string, prepTime, cookTime int) common.Difficulty {
	total := prepTime + cookTime
	steps := countSteps(instructions)

	switch {
	case total <= 30 && steps <= 5:
		return common.DifficultyEasy
	case total <= 60 && steps <= 10:
		return common.DifficultyMedium
	default:
		return common.DifficultyHard
	}
}

func countSteps(instructions string) int {
	n := 0
	for _, line := range strings.Split(instructions, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

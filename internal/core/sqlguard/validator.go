// Package sqlguard 驗證模型產生的 SQL：先擋注入與多重語句，再限定 SELECT，
// 最後比對資料表與欄位。
package sqlguard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Result 驗證結果
type Result struct {
	IsValid        bool     `json:"is_valid"`
	ErrorMessage   string   `json:"error_message"`
	Warnings       []string `json:"warnings"`
	SanitizedQuery string   `json:"sanitized_query"`
}

type denyRule struct {
	pattern *regexp.Regexp
	message string
}

// 依序比對，第一個命中即拒絕
var denyRules = []denyRule{
	{regexp.MustCompile(`;\s*drop\s+table`), "Detected DROP TABLE command"},
	{regexp.MustCompile(`;\s*delete\s+from`), "Detected DELETE command"},
	{regexp.MustCompile(`;\s*update\s+`), "Detected UPDATE command"},
	{regexp.MustCompile(`;\s*insert\s+into`), "Detected INSERT command"},
	{regexp.MustCompile(`;\s*alter\s+table`), "Detected ALTER TABLE command"},
	{regexp.MustCompile(`;\s*create\s+table`), "Detected CREATE TABLE command"},
	{regexp.MustCompile(`;\s*truncate\s+`), "Detected TRUNCATE command"},
	{regexp.MustCompile(`--`), "Detected SQL comment (possible injection)"},
	{regexp.MustCompile(`/\*`), "Detected multi-line comment (possible injection)"},
	{regexp.MustCompile(`union\s+select`), "Detected UNION SELECT (possible injection)"},
	{regexp.MustCompile(`exec\s*\(`), "Detected EXEC command"},
	{regexp.MustCompile(`execute\s*\(`), "Detected EXECUTE command"},
	{regexp.MustCompile(`xp_`), "Detected extended stored procedure"},
	{regexp.MustCompile(`sp_`), "Detected stored procedure"},
}

var tableRefPattern = regexp.MustCompile(`\b(?:from|join)\s+([a-z_][a-z0-9_]*)`)

// Validator 以指定結構驗證查詢
type Validator struct {
	schema Schema
}

// New 建立驗證器
func New(schema Schema) *Validator {
	return &Validator{schema: schema}
}

// Validate 以預設結構驗證
func Validate(query string) Result {
	return New(DefaultSchema).Validate(query)
}

// Validate 依序執行三道檢查，任一失敗即回傳
func (v *Validator) Validate(query string) Result {
	if msg := checkInjection(query); msg != "" {
		return Result{ErrorMessage: msg}
	}
	ctes, msg := checkStatementType(query)
	if msg != "" {
		return Result{ErrorMessage: msg}
	}

	warnings, msg := v.checkReferences(query, ctes)
	if msg != "" {
		return Result{ErrorMessage: msg, Warnings: warnings}
	}

	return Result{
		IsValid:        true,
		Warnings:       warnings,
		SanitizedQuery: strings.TrimSpace(query),
	}
}

func checkInjection(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))

	for _, rule := range denyRules {
		if rule.pattern.MatchString(normalized) {
			return "Security violation: " + rule.message
		}
	}

	statements := 0
	for _, part := range strings.Split(normalized, ";") {
		if strings.TrimSpace(part) != "" {
			statements++
		}
	}
	if statements > 1 {
		return "Multiple SQL statements not allowed"
	}
	return ""
}

// checkStatementType 主語句必須是 SELECT；WITH 開頭時回傳定義的 CTE 名稱並檢查其後的主語句
func checkStatementType(query string) ([]string, string) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if trimmed == "" {
		return nil, "Unable to parse SQL query"
	}

	var ctes []string
	if cteNames, main, ok := splitWith(trimmed); ok {
		ctes, trimmed = cteNames, main
	} else if withPattern.MatchString(trimmed) {
		return nil, "Unable to parse SQL query"
	}

	if kind := sqlparser.Preview(trimmed); kind != sqlparser.StmtSelect {
		return nil, fmt.Sprintf("Only SELECT queries allowed. Got: %s", sqlparser.StmtType(kind))
	}
	return ctes, ""
}

var (
	withPattern   = regexp.MustCompile(`(?i)^with\s`)
	identPattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`)
	cteAsPattern  = regexp.MustCompile(`(?i)^as\s*(?:not\s+materialized\s*|materialized\s*)?\(`)
	recursiveWord = regexp.MustCompile(`(?i)^recursive\s`)
)

// splitWith 拆開 WITH name [(cols)] AS (...) [, ...] main，回傳 CTE 名稱（小寫）與主語句
func splitWith(q string) ([]string, string, bool) {
	if !withPattern.MatchString(q) {
		return nil, "", false
	}
	rest := strings.TrimSpace(q[len("with"):])
	if loc := recursiveWord.FindStringIndex(rest); loc != nil {
		rest = strings.TrimSpace(rest[loc[1]:])
	}

	var names []string
	for {
		name := identPattern.FindString(rest)
		if name == "" {
			return nil, "", false
		}
		names = append(names, strings.ToLower(name))
		rest = strings.TrimSpace(rest[len(name):])

		if strings.HasPrefix(rest, "(") {
			end := closingParen(rest)
			if end < 0 {
				return nil, "", false
			}
			rest = strings.TrimSpace(rest[end+1:])
		}

		loc := cteAsPattern.FindStringIndex(rest)
		if loc == nil {
			return nil, "", false
		}
		rest = rest[loc[1]-1:]
		end := closingParen(rest)
		if end < 0 {
			return nil, "", false
		}
		rest = strings.TrimSpace(rest[end+1:])

		if !strings.HasPrefix(rest, ",") {
			break
		}
		rest = strings.TrimSpace(rest[1:])
	}
	if rest == "" {
		return nil, "", false
	}
	return names, rest, true
}

// closingParen s 以 '(' 開頭，回傳對應 ')' 的位置；引號內的括號不計
func closingParen(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (v *Validator) checkReferences(query string, ctes []string) ([]string, string) {
	normalized := strings.ToLower(query)

	seen := map[string]bool{}
	for _, name := range ctes {
		seen[name] = true
	}
	var tables, invalid []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(normalized, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := v.schema.table(name); ok {
			tables = append(tables, name)
		} else {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fmt.Sprintf("Invalid table(s) referenced: %s", strings.Join(invalid, ", "))
	}

	var warnings []string
	for _, name := range tables {
		t, _ := v.schema.table(name)
		colPattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\.([a-z_][a-z0-9_]*)`)
		reported := map[string]bool{}
		for _, m := range colPattern.FindAllStringSubmatch(normalized, -1) {
			col := m[1]
			if t.hasColumn(col) || reported[col] {
				continue
			}
			reported[col] = true
			warnings = append(warnings, fmt.Sprintf("Column '%s' may not exist in table '%s'", col, name))
		}
	}
	return warnings, ""
}

// ExplainFailure 產生給模型重試用的說明
func ExplainFailure(r Result) string {
	return explain(r, DefaultSchema)
}

// ExplainFailure 以驗證器的結構產生說明
func (v *Validator) ExplainFailure(r Result) string {
	return explain(r, v.schema)
}

// Documentation 驗證器使用的結構說明
func (v *Validator) Documentation() string {
	return v.schema.Documentation()
}

func explain(r Result, schema Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SQL Validation Failed: %s\n\n", r.ErrorMessage)

	if len(r.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("Please revise your query following these guidelines:\n")
	b.WriteString("1. Only SELECT statements are allowed\n")
	b.WriteString("2. Use only tables and columns from the schema\n")
	b.WriteString("3. No multiple statements or dangerous commands\n\n")
	b.WriteString(schema.Documentation())
	return b.String()
}

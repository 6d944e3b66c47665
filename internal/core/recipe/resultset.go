package recipe

import (
	"fmt"
	"strings"
)

// maxRenderedRows 交給模型的最大列數
const maxRenderedRows = 100

// ResultSet 任意查詢的結果
type ResultSet struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Empty 是否沒有任何資料列
func (r *ResultSet) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Records 以欄位名稱為鍵的資料列
func (r *ResultSet) Records() []map[string]interface{} {
	if r == nil {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make(map[string]interface{}, len(r.Columns))
		for i, col := range r.Columns {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// String 以管線分隔的表格文字，供提示詞使用
func (r *ResultSet) String() string {
	if r.Empty() {
		return "No results found (empty result set)"
	}

	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString("\n")
	for i, row := range r.Rows {
		if i == maxRenderedRows {
			fmt.Fprintf(&b, "... (%d more rows)\n", len(r.Rows)-maxRenderedRows)
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = "NULL"
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

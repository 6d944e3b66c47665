package sqlguard

import (
	"fmt"
	"strings"
)

// Table 允許查詢的資料表
type Table struct {
	Name        string
	Description string
	Columns     []string
}

// Relationship 外鍵關係
type Relationship struct {
	From string
	To   string
}

// Schema 模型可見的資料庫結構
type Schema struct {
	Tables        []Table
	Relationships []Relationship
}

// DefaultSchema 食譜資料庫結構
var DefaultSchema = Schema{
	Tables: []Table{
		{
			Name:        "users",
			Description: "User information",
			Columns:     []string{"id", "name"},
		},
		{
			Name:        "recipes",
			Description: "Recipe information with cooking details",
			Columns: []string{
				"id", "name", "description", "instructions",
				"prep_time", "cook_time", "servings", "difficulty",
				"cuisine_type", "url", "created_at",
			},
		},
		{
			Name:        "ingredients",
			Description: "Available ingredients",
			Columns:     []string{"id", "name", "category"},
		},
		{
			Name:        "recipe_ingredients",
			Description: "Junction table linking recipes to ingredients",
			Columns: []string{
				"id", "recipe_id", "ingredient_id",
				"quantity", "unit", "notes",
			},
		},
	},
	Relationships: []Relationship{
		{From: "recipe_ingredients.recipe_id", To: "recipes.id"},
		{From: "recipe_ingredients.ingredient_id", To: "ingredients.id"},
	},
}

func (s Schema) table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

func (t Table) hasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Documentation 給模型看的結構說明
func (s Schema) Documentation() string {
	var b strings.Builder
	b.WriteString("DATABASE SCHEMA:\n\n")
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "Table: %s\n", t.Name)
		fmt.Fprintf(&b, "Description: %s\n", t.Description)
		fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(t.Columns, ", "))
	}
	b.WriteString("RELATIONSHIPS:\n")
	for _, r := range s.Relationships {
		fmt.Fprintf(&b, "- %s -> %s\n", r.From, r.To)
	}
	return b.String()
}

// SchemaDocumentation 預設結構說明
func SchemaDocumentation() string {
	return DefaultSchema.Documentation()
}

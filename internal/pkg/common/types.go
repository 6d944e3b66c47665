package common

import (
	"fmt"
	"strings"
)

// Difficulty 食譜難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid 是否為合法難度
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty 解析難度字串（不分大小寫），無效時回傳空值
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d
	}
	return ""
}

// Preferences 使用者偏好
type Preferences struct {
	Difficulty  Difficulty `json:"difficulty,omitempty" binding:"omitempty,oneof=easy medium hard"`
	CuisineType string     `json:"cuisine_type,omitempty"`
	MaxTime     int        `json:"max_time,omitempty" binding:"gte=0"` // 分鐘，0 表示不限
}

// IsZero 是否未設定任何偏好
func (p Preferences) IsZero() bool {
	return p.Difficulty == "" && p.CuisineType == "" && p.MaxTime == 0
}

// String 偏好描述，供提示詞使用
func (p Preferences) String() string {
	var parts []string
	if p.Difficulty != "" {
		parts = append(parts, fmt.Sprintf("difficulty: %s", p.Difficulty))
	}
	if p.CuisineType != "" {
		parts = append(parts, fmt.Sprintf("cuisine: %s", p.CuisineType))
	}
	if p.MaxTime > 0 {
		parts = append(parts, fmt.Sprintf("max total time: %d minutes", p.MaxTime))
	}
	return strings.Join(parts, ", ")
}

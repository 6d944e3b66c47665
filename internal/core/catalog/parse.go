package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)H`)
	minutesPattern = regexp.MustCompile(`(\d+)M`)
	digitsPattern  = regexp.MustCompile(`\d+`)

	ingredientPattern = regexp.MustCompile(`(?i)^([\d\s/.]+)\s*([a-zA-Z]+\.?)\s+(.+)$`)
	quantityPattern   = regexp.MustCompile(`^([\d\s/.]+)\s+(.+)$`)
)

// 單位白名單（小寫、去掉結尾的點）
var culinaryUnits = toSet(
	"cup", "cups", "c", "tablespoon", "tablespoons", "tbsp", "t",
	"teaspoon", "teaspoons", "tsp",
	"pound", "pounds", "lb", "lbs",
	"ounce", "ounces", "oz",
	"gram", "grams", "g",
	"kilogram", "kilograms", "kg",
	"milliliter", "milliliters", "ml",
	"liter", "liters", "l",
	"piece", "pieces", "pc", "pcs",
	"clove", "cloves",
	"bunch", "bunches",
	"head", "heads",
	"can", "cans",
	"package", "packages", "pkg", "pkgs",
	"whole", "slice", "slices", "pinch", "pinches",
	"dash", "dashes", "stick", "sticks", "sprig", "sprigs",
)

type categoryRule struct {
	category string
	keywords []string
}

// 依優先順序比對，第一個命中即採用；garlic 同時出現在 vegetable 與 spice，以 vegetable 為準
var categoryRules = []categoryRule{
	{"meat", []string{"chicken", "beef", "pork", "lamb", "turkey", "duck", "bacon", "sausage",
		"ham", "prosciutto", "pancetta", "steak", "ground", "mince"}},
	{"seafood", []string{"fish", "salmon", "tuna", "shrimp", "prawn", "crab", "lobster",
		"mussel", "clam", "oyster", "squid", "octopus", "cod", "tilapia"}},
	{"dairy", []string{"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "sour cream",
		"buttermilk", "mascarpone", "ricotta", "mozzarella", "parmesan"}},
	{"vegetable", []string{"onion", "garlic", "tomato", "pepper", "carrot", "celery", "potato",
		"lettuce", "spinach", "broccoli", "cauliflower", "cabbage", "mushroom",
		"zucchini", "eggplant", "cucumber", "peas", "beans", "corn"}},
	{"spice", []string{"salt", "pepper", "paprika", "cumin", "coriander", "turmeric", "cinnamon",
		"nutmeg", "ginger", "garlic", "basil", "oregano", "thyme", "rosemary",
		"parsley", "cilantro", "chili", "chilli", "curry", "spice"}},
	{"grain", []string{"flour", "rice", "pasta", "noodle", "bread", "quinoa", "barley", "oats",
		"wheat", "cornmeal", "polenta", "couscous"}},
	{"fruit", []string{"apple", "banana", "orange", "lemon", "lime", "berry", "strawberry",
		"blueberry", "raspberry", "mango", "pineapple", "peach", "pear"}},
	{"nut", []string{"almond", "walnut", "pecan", "peanut", "cashew", "pistachio", "hazelnut",
		"sesame", "sunflower", "pumpkin", "seed"}},
	{"oil", []string{"oil", "olive oil", "vegetable oil", "canola", "butter", "lard", "shortening"}},
}

// CategoryOther 無法分類時的類別
const CategoryOther = "other"

var knownCategories = toSet("meat", "seafood", "dairy", "vegetable", "fruit", "grain", "spice", "nut", "oil", CategoryOther)

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// ParseDuration 將 ISO-8601 時長（PT1H30M）轉為分鐘，時與分各自獨立擷取
func ParseDuration(s string) int {
	if !strings.HasPrefix(s, "PT") {
		return 0
	}
	rest := s[2:]

	total := 0
	if m := hoursPattern.FindStringSubmatch(rest); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m := minutesPattern.FindStringSubmatch(rest); m != nil {
		mins, _ := strconv.Atoi(m[1])
		total += mins
	}
	return total
}

// parseServings 數字直接取整，字串取第一段數字，陣列看第一個元素
func parseServings(v interface{}) *int {
	switch y := v.(type) {
	case []interface{}:
		if len(y) == 0 {
			return nil
		}
		return parseServings(y[0])
	case string:
		m := digitsPattern.FindString(y)
		if m == "" {
			return nil
		}
		n, err := strconv.Atoi(m)
		if err != nil || n == 0 {
			return nil
		}
		return &n
	default:
		n, ok := common.AsInt(v)
		if !ok || n == 0 {
			return nil
		}
		return &n
	}
}

// ParseIngredient 拆解食材字串為份量、單位與名稱；空字串回傳 false
func ParseIngredient(s string) (recipe.IngredientLine, bool) {
	s = strings.TrimSpace(StripTags(s))
	if s == "" {
		return recipe.IngredientLine{}, false
	}

	var line recipe.IngredientLine
	if m := ingredientPattern.FindStringSubmatch(s); m != nil {
		line.Quantity = strings.TrimSpace(m[1])
		line.Unit = strings.ToLower(strings.TrimSpace(m[2]))
		line.Name = strings.TrimSpace(m[3])

		if !culinaryUnits[strings.TrimRight(line.Unit, ".")] {
			line.Name = line.Unit + " " + line.Name
			line.Unit = ""
		}
	} else if m := quantityPattern.FindStringSubmatch(s); m != nil {
		line.Quantity = strings.TrimSpace(m[1])
		line.Name = strings.TrimSpace(m[2])
	} else {
		line.Name = s
	}

	line.Category = Categorize(line.Name)
	return line, true
}

// Categorize 以關鍵字推斷食材類別
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// normalizeCategory 接受已知類別，否則以關鍵字推斷
func normalizeCategory(category, name string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if knownCategories[c] {
		return c
	}
	return Categorize(name)
}

// StripTags 去除標籤、解碼實體並壓縮空白
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var parts []string
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				parts = append(parts, string(z.Text()))
			}
		}
	}
}

func isRawTextTag(name string) bool {
	return name == "script" || name == "style"
}

// CleanHTMLForModel 移除 script/style/meta/link 後取純文字，超過上限時截斷並加上 "..."
func CleanHTMLForModel(page string, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, meta, link, noscript").Remove()

	var chunks []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if p := strings.TrimSpace(phrase); p != "" {
				chunks = append(chunks, p)
			}
		}
	}
	text := strings.Join(chunks, "\n")

	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars]) + "..."
		}
	}
	return text, nil
}

// Package correction analyses a learner's interview answers and validates the
// structured corrections returned by the text generation gateway.
package correction

import "strings"

// Category is one correction label.
type Category struct {
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
}

// Perfect marks an answer with no errors.
const Perfect = "perfect"

var categories = []Category{
	{"vocabulary", "词汇错误"},
	{"grammar", "语法错误"},
	{"pronunciation", "发音错误"},
	{"expression", "表达不自然"},
	{"punctuation", "标点错误"},
	{"spelling", "拼写错误"},
	{"word_order", "词序错误"},
	{"preposition", "介词错误"},
	{"tense", "时态错误"},
	{"article", "冠词错误"},
	{"capitalization", "大小写错误"},
	{Perfect, "没有错误"},
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c.Label] = struct{}{}
	}
	return set
}()

// Categories returns the fixed category list in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// IsCategory reports whether label is one of the fixed categories.
func IsCategory(label string) bool {
	_, ok := categorySet[label]
	return ok
}

// CategoryLabels returns the labels joined for prompt rendering.
func CategoryLabels() string {
	labels := make([]string, len(categories))
	for i, c := range categories {
		labels[i] = c.Label
	}
	return strings.Join(labels, ", ")
}

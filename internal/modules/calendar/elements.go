package calendar

import (
	"strings"

	"github.com/aristath/lifecandle/internal/domain"
)

// Element is one of the five elemental categories
type Element string

const (
	Wood  Element = "木"
	Fire  Element = "火"
	Earth Element = "土"
	Metal Element = "金"
	Water Element = "水"
)

// DefaultElement is used for empty or unrecognised glyphs
const DefaultElement = Earth

var stemElements = map[rune]Element{
	'甲': Wood, '乙': Wood,
	'丙': Fire, '丁': Fire,
	'戊': Earth, '己': Earth,
	'庚': Metal, '辛': Metal,
	'壬': Water, '癸': Water,
}

var elementWeights = map[Element]int{
	Wood:  2,
	Fire:  3,
	Earth: 1,
	Metal: 2,
	Water: 2,
}

var yangStems = map[rune]bool{'甲': true, '丙': true, '戊': true, '庚': true, '壬': true}

func leadingGlyph(label string) (rune, bool) {
	for _, r := range strings.TrimSpace(label) {
		return r, true
	}
	return 0, false
}

// ElementOf maps the leading stem glyph of a label to its element
func ElementOf(label string) Element {
	r, ok := leadingGlyph(label)
	if !ok {
		return DefaultElement
	}
	if e, ok := stemElements[r]; ok {
		return e
	}
	return DefaultElement
}

// Weight returns the fixed weight of an element
func Weight(e Element) int {
	if w, ok := elementWeights[e]; ok {
		return w
	}
	return elementWeights[DefaultElement]
}

// WeightOf is Weight(ElementOf(label))
func WeightOf(label string) int {
	return Weight(ElementOf(label))
}

// IsYang reports the polarity of a pillar's stem. An empty pillar counts as yang.
func IsYang(pillar string) bool {
	r, ok := leadingGlyph(pillar)
	if !ok {
		return true
	}
	return yangStems[r]
}

// IsForward derives the decade-phase direction: male subjects walk forward
// under a yang year stem, female subjects under a yin one.
func IsForward(yearPillar string, gender domain.Gender) bool {
	yang := IsYang(yearPillar)
	if gender == domain.GenderFemale {
		return !yang
	}
	return yang
}

package pageanalyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Bahjat/seo-monitor/internal/model"
)

// MaxKeywords bounds the keyword density table.
const MaxKeywords = 10

// wordPattern matches a maximal run of letters, digits and underscores.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// keywordDensity computes each repeated word's share of all word tokens in
// text, as a percentage. Only words seen more than once are kept. The result
// is ordered by descending share, ties in order of first appearance, and
// holds at most MaxKeywords entries.
func keywordDensity(text string) model.KeywordDensity {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return model.KeywordDensity{}
	}

	counts := make(map[string]int, len(words))
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	total := float64(len(words))
	density := model.KeywordDensity{}
	for _, w := range order {
		if counts[w] > 1 {
			density = append(density, model.KeywordShare{
				Word:       w,
				Percentage: float64(counts[w]) / total * 100,
			})
		}
	}

	sort.SliceStable(density, func(i, j int) bool {
		return density[i].Percentage > density[j].Percentage
	})
	if len(density) > MaxKeywords {
		density = density[:MaxKeywords]
	}
	return density
}

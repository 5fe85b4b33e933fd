package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// The matcher maps an internal product to a provider variation. The
// provider's catalog drifts independently of ours, so after an exact name
// match fails we fall back through progressively looser heuristics. Each
// strategy is a pure function; first hit wins.

type Strategy struct {
	Name  string
	Match func(p *Product, variations []Variation) *Variation
}

type Matcher struct {
	strategies []Strategy
}

func NewMatcher() *Matcher {
	return &Matcher{strategies: []Strategy{
		{Name: "exact_name", Match: matchExactName},
		{Name: "volume_and_price", Match: matchVolumeAndPrice},
		{Name: "token_similarity", Match: matchTokenSimilarity},
		{Name: "manual_alias", Match: matchManualAlias},
		{Name: "nearest_volume", Match: matchNearestVolume},
	}}
}

// Resolve runs the strategy chain over the available variations and
// returns the winning variation plus the strategy that found it.
func (m *Matcher) Resolve(p *Product, variations []Variation) (*Variation, string, bool) {
	available := make([]Variation, 0, len(variations))
	for _, v := range variations {
		if v.Available() {
			available = append(available, v)
		}
	}

	for _, s := range m.strategies {
		if v := s.Match(p, available); v != nil {
			return v, s.Name, true
		}
	}
	return nil, "", false
}

func matchExactName(p *Product, variations []Variation) *Variation {
	want := strings.ToLower(strings.TrimSpace(p.Name))
	for i := range variations {
		if strings.ToLower(strings.TrimSpace(variations[i].DataPlan)) == want {
			return &variations[i]
		}
	}
	return nil
}

func matchVolumeAndPrice(p *Product, variations []Variation) *Variation {
	ourVolume, ok := ExtractVolumeMB(p.Name)
	if !ok {
		return nil
	}
	for i := range variations {
		theirVolume, ok := ExtractVolumeMB(variations[i].DataPlan)
		if !ok {
			continue
		}
		if ourVolume == theirVolume && priceWithin(p.Price, variations[i].Price, 50) {
			return &variations[i]
		}
	}
	return nil
}

func matchTokenSimilarity(p *Product, variations []Variation) *Variation {
	ourName := normalizeName(p.Name)
	for i := range variations {
		similarity := nameSimilarity(ourName, normalizeName(variations[i].DataPlan))
		if similarity > 0.7 && priceWithin(p.Price, variations[i].Price, 100) {
			return &variations[i]
		}
	}
	return nil
}

// Curated aliases for plans whose provider names never line up with ours.
var manualAliases = map[string][]string{
	"50mb (cg_lite)":  {"50mb", "50 mb", "50mb daily"},
	"150mb (cg_lite)": {"150mb", "150 mb", "150mb daily"},
	"250mb (cg_lite)": {"250mb", "250 mb", "250mb daily"},
	"500mb (cg_lite)": {"500mb", "500 mb", "500mb daily"},
	"500mb (cg)":      {"500mb", "500 mb", "500mb weekly"},
	"1gb (cg)":        {"1gb", "1 gb", "1000mb"},
	"1gb (cg_lite)":   {"1gb", "1 gb", "1000mb"},
	"1.5gb (cg)":      {"1.5gb", "1.5 gb", "1500mb"},
	"100mb (sme)":     {"100mb", "100 mb"},
	"300mb (sme)":     {"300mb", "300 mb"},
	"500mb (sme)":     {"500mb", "500 mb"},
	"1gb (sme)":       {"1gb", "1 gb", "1000mb"},
	"200mb (cg)":      {"200mb", "200 mb"},
	"750mb (awoof)":   {"750mb", "750 mb"},
}

func matchManualAlias(p *Product, variations []Variation) *Variation {
	name := strings.ToLower(p.Name)
	for alias, patterns := range manualAliases {
		if !strings.Contains(name, strings.TrimSpace(stripParens(alias))) {
			continue
		}
		for _, pattern := range patterns {
			for i := range variations {
				if strings.Contains(strings.ToLower(variations[i].DataPlan), pattern) {
					return &variations[i]
				}
			}
		}
	}
	return nil
}

func matchNearestVolume(p *Product, variations []Variation) *Variation {
	ourVolume, ok := ExtractVolumeMB(p.Name)
	if !ok {
		return nil
	}
	for i := range variations {
		theirVolume, ok := ExtractVolumeMB(variations[i].DataPlan)
		if !ok {
			continue
		}
		volumeDiff := ourVolume - theirVolume
		if volumeDiff < 0 {
			volumeDiff = -volumeDiff
		}
		if volumeDiff < 500 && priceWithin(p.Price, variations[i].Price, 200) {
			return &variations[i]
		}
	}
	return nil
}

var volumePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(GB|MB)`)

// ExtractVolumeMB parses the data volume out of a plan name ("1.5GB",
// "500MB") and normalizes it to megabytes.
func ExtractVolumeMB(planName string) (float64, bool) {
	matches := volumePattern.FindStringSubmatch(planName)
	if matches == nil {
		return 0, false
	}

	amount, err := decimal.NewFromString(matches[1])
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(matches[2], "GB") {
		amount = amount.Mul(decimal.NewFromInt(1024))
	}
	f, _ := amount.Float64()
	return f, true
}

func priceWithin(a, b decimal.Decimal, tolerance int64) bool {
	return a.Sub(b).Abs().LessThan(decimal.NewFromInt(tolerance))
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
var parens = regexp.MustCompile(`\(.*?\)`)
var spaces = regexp.MustCompile(`\s+`)

func stripParens(name string) string {
	return strings.TrimSpace(parens.ReplaceAllString(name, ""))
}

func normalizeName(name string) string {
	s := strings.ToLower(name)
	s = parens.ReplaceAllString(s, "")
	s = nonAlnum.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// nameSimilarity is the share of words the two names have in common,
// counting substring containment either way.
func nameSimilarity(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for _, wa := range wordsA {
		for _, wb := range wordsB {
			if strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				common++
				break
			}
		}
	}

	max := len(wordsA)
	if len(wordsB) > max {
		max = len(wordsB)
	}
	return float64(common) / float64(max)
}

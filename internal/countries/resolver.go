package countries

import (
	"regexp"
	"strings"

	"github.com/nikolag/summit/internal/domain"
	"github.com/nikolag/summit/internal/names"
)

// Match describes a successful country resolution. Method records which
// strategy produced the match; Score is 1.0 for everything but fuzzy hits.
type Match struct {
	Country domain.Country
	Method  string
	Score   float64
}

// aliases maps normalized local-language variants and common shortcuts
// to canonical catalog names. Extend as new values show up in imports.
var aliases = map[string]string{
	// Bosnia and Herzegovina
	"bih":                 "Bosnia and Herzegovina",
	"bh":                  "Bosnia and Herzegovina",
	"b i h":               "Bosnia and Herzegovina",
	"bosnia i hercegovina": "Bosnia and Herzegovina",
	"bosna i hercegovina":  "Bosnia and Herzegovina",
	"bosna":               "Bosnia and Herzegovina",
	"bosnia":              "Bosnia and Herzegovina",
	"bosnian":             "Bosnia and Herzegovina",
	// Croatia
	"rh":                "Croatia",
	"hr":                "Croatia",
	"h r":               "Croatia",
	"hrvatska":          "Croatia",
	"republika hrvatska": "Croatia",
	"cro":               "Croatia",
	"croatian":          "Croatia",
	// Serbia
	"srbija":           "Serbia",
	"r srbija":         "Serbia",
	"republika srbija": "Serbia",
	"serbian":          "Serbia",
	// Montenegro
	"crna gora": "Montenegro",
	"cg":        "Montenegro",
	// North Macedonia
	"makedonija":       "North Macedonia",
	"macedonia":        "North Macedonia",
	"severna makedonija": "North Macedonia",
	// Kosovo
	"kosova":   "Kosovo",
	"kosovar":  "Kosovo",
	"kosove":   "Kosovo",
	// Albania
	"shqiperia": "Albania",
	"shqiperi":  "Albania",
	"albanian":  "Albania",
}

// isoCodes maps ISO alpha-2/alpha-3 codes (lowercase, whitespace removed)
// to canonical names.
var isoCodes = map[string]string{
	"ba": "Bosnia and Herzegovina", "bih": "Bosnia and Herzegovina", "bh": "Bosnia and Herzegovina",
	"hr": "Croatia", "hrv": "Croatia",
	"rs": "Serbia", "srb": "Serbia",
	"me": "Montenegro", "mne": "Montenegro",
	"mk": "North Macedonia", "mkd": "North Macedonia",
	"si": "Slovenia", "svn": "Slovenia",
	"al": "Albania", "alb": "Albania",
	"xk": "Kosovo",
	"at": "Austria", "aut": "Austria",
	"de": "Germany", "deu": "Germany",
	"it": "Italy", "ita": "Italy",
	"us": "United States", "usa": "United States",
	"gb": "United Kingdom", "gbr": "United Kingdom",
}

// prefixShortcuts resolves adjectival or longer forms by the first three
// normalized characters of a token.
var prefixShortcuts = map[string]string{
	"alb": "Albania",
	"aus": "Austria",
	"bos": "Bosnia and Herzegovina",
	"cro": "Croatia",
	"ger": "Germany",
	"hun": "Hungary",
	"ita": "Italy",
	"kos": "Kosovo",
	"mac": "North Macedonia",
	"mak": "North Macedonia",
	"mon": "Montenegro",
	"pol": "Poland",
	"ser": "Serbia",
	"slo": "Slovenia",
	"spa": "Spain",
	"swe": "Sweden",
	"ukr": "Ukraine",
	"uni": "United Kingdom",
	"usa": "United States",
}

var stopwords = map[string]bool{
	"republika": true, "republik": true, "republic": true,
	"and": true, "i": true, "of": true, "the": true, "r": true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// Resolver matches raw country strings against the catalog.
type Resolver struct {
	byName     map[string]domain.Country // canonical name -> entry
	normalized map[string]string         // normalized name -> canonical name
	normNames  []string
}

// NewResolver builds a resolver over the given catalog entries.
func NewResolver(catalog []domain.Country) *Resolver {
	r := &Resolver{
		byName:     make(map[string]domain.Country, len(catalog)),
		normalized: make(map[string]string, len(catalog)),
	}
	for _, c := range catalog {
		r.byName[c.Name] = c
		n := normalize(c.Name)
		r.normalized[n] = c.Name
		r.normNames = append(r.normNames, n)
	}
	return r
}

// normalize lowercases, strips accents and punctuation, collapses
// whitespace and drops stopwords such as "republika".
func normalize(value string) string {
	value = names.Canon(value)
	value = nonAlnum.ReplaceAllString(value, " ")

	var kept []string
	for _, token := range strings.Fields(value) {
		if !stopwords[token] {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

// Resolve maps an arbitrary country string to a catalog entry. The bool
// result is false when no strategy produced a match.
func (r *Resolver) Resolve(raw string) (Match, bool) {
	q := normalize(raw)
	if q == "" {
		return Match{}, false
	}

	if name, ok := aliases[q]; ok {
		return r.match(name, "alias", 1.0)
	}

	// ISO codes are checked with whitespace removed so "B. I. H."
	// resolves correctly.
	if name, ok := isoCodes[strings.ReplaceAll(q, " ", "")]; ok {
		return r.match(name, "iso", 1.0)
	}

	if name, ok := r.normalized[q]; ok {
		return r.match(name, "exact", 1.0)
	}

	if len(q) >= 3 {
		if name, ok := prefixShortcuts[q[:3]]; ok {
			return r.match(name, "prefix", 0.9)
		}
	}

	if name, score := r.closest(q); name != "" {
		return r.match(name, "fuzzy", score)
	}

	return Match{}, false
}

const fuzzyCutoff = 0.72

// closest finds the catalog name with the highest similarity ratio to q,
// subject to the fuzzy cutoff.
func (r *Resolver) closest(q string) (string, float64) {
	var bestName string
	var bestScore float64

	for _, n := range r.normNames {
		score := similarity(q, n)
		if score > bestScore {
			bestName, bestScore = n, score
		}
	}

	if bestScore < fuzzyCutoff {
		return "", 0
	}
	return r.normalized[bestName], bestScore
}

func (r *Resolver) match(name, method string, score float64) (Match, bool) {
	c, ok := r.byName[name]
	if !ok {
		return Match{}, false
	}
	return Match{Country: c, Method: method, Score: score}, true
}

// similarity is a Levenshtein-based ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}

	dist := prev[lb]
	maxLen := max(la, lb)
	return 1.0 - float64(dist)/float64(maxLen)
}

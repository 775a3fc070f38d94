package services

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// ExtractKeywords returns up to n of the most frequent terms in text,
// ignoring English stop words and single letters. Ties go to the
// alphabetically first term. The result is sorted.
func ExtractKeywords(text string, n int) []string {
	if n <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	counts := make(map[string]int)
	for _, tok := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	sort.Strings(terms)
	return terms
}

var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
		a about above across after afterwards again against all almost alone along already also
		although always am among amongst an and another any anyhow anyone anything anyway anywhere
		are around as at be became because become becomes becoming been before beforehand behind
		being below beside besides between beyond both but by can cannot could did do does doing
		done down due during each eg either else elsewhere enough etc even ever every everyone
		everything everywhere except few for former formerly from further had has have having he
		hence her here hereafter hereby herein hereupon hers herself him himself his how however
		i ie if in indeed into is it its itself just last latter latterly least less ltd made many
		may me meanwhile might more moreover most mostly much must my myself namely neither never
		nevertheless next no nobody none noone nor not nothing now nowhere of off often on once one
		only onto or other others otherwise our ours ourselves out over own per perhaps please
		rather re same seem seemed seeming seems several she should since so some somehow someone
		something sometime sometimes somewhere still such than that the their theirs them themselves
		then thence there thereafter thereby therefore therein thereupon these they this those
		though through throughout thru thus to together too toward towards under until up upon us
		very via was we well were what whatever when whence whenever where whereafter whereas
		whereby wherein whereupon wherever whether which while whither who whoever whole whom whose
		why will with within without would yet you your yours yourself yourselves
	`)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

package textsearch

import "sort"

// Query is a conjunction of lexemes, the analogue of plainto_tsquery.
type Query struct {
	Lexemes []string
}

// PlainQuery normalizes free text into a query whose lexemes must all match.
func PlainQuery(lang Language, text string) Query {
	seen := make(map[string]struct{})
	var lexemes []string
	for _, lex := range Normalize(lang, text) {
		if _, ok := seen[lex]; ok {
			continue
		}
		seen[lex] = struct{}{}
		lexemes = append(lexemes, lex)
	}
	return Query{Lexemes: lexemes}
}

// IsEmpty reports whether the query has no lexemes, e.g. only stop words.
func (q Query) IsEmpty() bool {
	return len(q.Lexemes) == 0
}

// Match reports whether every query lexeme occurs in v. Empty queries match nothing.
func Match(v Vector, q Query) bool {
	if q.IsEmpty() {
		return false
	}
	for _, lex := range q.Lexemes {
		if _, ok := v[lex]; !ok {
			return false
		}
	}
	return true
}

type occurrence struct {
	pos    int
	weight Weight
	term   int
}

// extent is a minimal window of occurrences covering every query lexeme.
type extent struct {
	begin, end int
}

// RankCD scores v against q by cover density, mirroring ts_rank_cd with
// normalization 0. Vectors that do not match score zero.
func RankCD(v Vector, q Query) float64 {
	if !Match(v, q) {
		return 0
	}

	var occ []occurrence
	for i, lex := range q.Lexemes {
		for _, p := range v[lex] {
			occ = append(occ, occurrence{pos: p.Pos, weight: p.Weight, term: i})
		}
	}
	sort.Slice(occ, func(i, j int) bool {
		if occ[i].pos != occ[j].pos {
			return occ[i].pos < occ[j].pos
		}
		return occ[i].term < occ[j].term
	})

	var rank float64
	for _, ext := range covers(occ, len(q.Lexemes)) {
		var invSum float64
		for i := ext.begin; i <= ext.end; i++ {
			invSum += 1 / occ[i].weight.rank()
		}
		items := ext.end - ext.begin
		cpos := float64(items+1) / invSum

		noise := (occ[ext.end].pos - occ[ext.begin].pos) - items
		if noise < 0 {
			noise = items / 2
		}
		rank += cpos / float64(1+noise)
	}
	return rank
}

// covers walks the occurrence list left to right, each time taking the
// shortest prefix that covers all terms and then shrinking it from the left.
func covers(occ []occurrence, terms int) []extent {
	var out []extent
	start := 0
	for start < len(occ) {
		seen := make([]bool, terms)
		count, end := 0, -1
		for i := start; i < len(occ); i++ {
			if !seen[occ[i].term] {
				seen[occ[i].term] = true
				count++
			}
			if count == terms {
				end = i
				break
			}
		}
		if end < 0 {
			break
		}

		seen = make([]bool, terms)
		count, begin := 0, end
		for i := end; i >= start; i-- {
			if !seen[occ[i].term] {
				seen[occ[i].term] = true
				count++
			}
			if count == terms {
				begin = i
				break
			}
		}
		out = append(out, extent{begin: begin, end: end})
		start = begin + 1
	}
	return out
}

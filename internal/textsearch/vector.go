package textsearch

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Weight is a relevance tier attached to a lexeme position.
type Weight byte

const (
	WeightA Weight = 'A'
	WeightB Weight = 'B'
	WeightC Weight = 'C'
	WeightD Weight = 'D'
)

// MaxPosition is the largest position a vector records; later positions are clamped.
const MaxPosition = 16383

// rankWeights are the default {D, C, B, A} multipliers used by ts_rank_cd.
var rankWeights = map[Weight]float64{
	WeightD: 0.1,
	WeightC: 0.2,
	WeightB: 0.4,
	WeightA: 1.0,
}

func (w Weight) rank() float64 {
	if v, ok := rankWeights[w]; ok {
		return v
	}
	return rankWeights[WeightD]
}

// Position is a single occurrence of a lexeme.
type Position struct {
	Pos    int
	Weight Weight
}

// Vector is a weighted lexeme index, the application-side analogue of tsvector.
// Lexemes map to their sorted, de-duplicated positions.
type Vector map[string][]Position

// ToVector builds a vector from text using the given configuration.
// All positions carry WeightD until SetWeight is applied.
func ToVector(lang Language, text string) Vector {
	v := Vector{}
	for _, t := range tokenize(lang, text) {
		pos := t.position
		if pos > MaxPosition {
			pos = MaxPosition
		}
		v[t.lexeme] = append(v[t.lexeme], Position{Pos: pos, Weight: WeightD})
	}
	v.normalize()
	return v
}

// SetWeight returns a copy of v with every position labelled w.
func (v Vector) SetWeight(w Weight) Vector {
	out := make(Vector, len(v))
	for lex, positions := range v {
		cp := make([]Position, len(positions))
		for i, p := range positions {
			cp[i] = Position{Pos: p.Pos, Weight: w}
		}
		out[lex] = cp
	}
	return out
}

// Concat appends other after v. Positions of other are shifted past the
// largest position in v.
func (v Vector) Concat(other Vector) Vector {
	shift := v.maxPosition()
	out := make(Vector, len(v)+len(other))
	for lex, positions := range v {
		out[lex] = append([]Position(nil), positions...)
	}
	for lex, positions := range other {
		for _, p := range positions {
			pos := p.Pos + shift
			if pos > MaxPosition {
				pos = MaxPosition
			}
			out[lex] = append(out[lex], Position{Pos: pos, Weight: p.Weight})
		}
	}
	out.normalize()
	return out
}

// Len returns the number of distinct lexemes.
func (v Vector) Len() int {
	return len(v)
}

// Lexemes returns the lexemes in sorted order.
func (v Vector) Lexemes() []string {
	lexemes := make([]string, 0, len(v))
	for lex := range v {
		lexemes = append(lexemes, lex)
	}
	sort.Strings(lexemes)
	return lexemes
}

func (v Vector) maxPosition() int {
	max := 0
	for _, positions := range v {
		for _, p := range positions {
			if p.Pos > max {
				max = p.Pos
			}
		}
	}
	return max
}

// normalize sorts positions and keeps the strongest weight for duplicates.
func (v Vector) normalize() {
	for lex, positions := range v {
		sort.Slice(positions, func(i, j int) bool {
			if positions[i].Pos != positions[j].Pos {
				return positions[i].Pos < positions[j].Pos
			}
			return positions[i].Weight < positions[j].Weight
		})
		deduped := positions[:0]
		for _, p := range positions {
			if len(deduped) > 0 && deduped[len(deduped)-1].Pos == p.Pos {
				continue
			}
			deduped = append(deduped, p)
		}
		v[lex] = deduped
	}
}

// String renders the canonical tsvector text form, e.g. 'ruby':1A 'red':2B.
// Equal vectors always render to identical bytes.
func (v Vector) String() string {
	var b strings.Builder
	for i, lex := range v.Lexemes() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(lex, "'", "''"))
		b.WriteByte('\'')
		positions := v[lex]
		if len(positions) == 0 {
			continue
		}
		b.WriteByte(':')
		for j, p := range positions {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(p.Pos))
			if p.Weight != WeightD {
				b.WriteByte(byte(p.Weight))
			}
		}
	}
	return b.String()
}

// ParseVector reads the text form produced by String.
func ParseVector(text string) (Vector, error) {
	v := Vector{}
	s := strings.TrimSpace(text)
	for len(s) > 0 {
		if s[0] != '\'' {
			return nil, fmt.Errorf("parse vector: expected quote at %q", s)
		}
		lex, rest, err := readQuoted(s[1:])
		if err != nil {
			return nil, err
		}
		s = rest
		positions := []Position{}
		if strings.HasPrefix(s, ":") {
			end := strings.IndexByte(s, ' ')
			if end < 0 {
				end = len(s)
			}
			positions, err = parsePositions(s[1:end])
			if err != nil {
				return nil, fmt.Errorf("parse vector: lexeme %q: %w", lex, err)
			}
			s = s[end:]
		}
		v[lex] = append(v[lex], positions...)
		s = strings.TrimLeft(s, " ")
	}
	v.normalize()
	return v, nil
}

func readQuoted(s string) (string, string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), s[i+1:], nil
	}
	return "", "", errors.New("parse vector: unterminated lexeme")
}

func parsePositions(s string) ([]Position, error) {
	parts := strings.Split(s, ",")
	positions := make([]Position, 0, len(parts))
	for _, part := range parts {
		w := WeightD
		if n := len(part); n > 0 {
			switch Weight(part[n-1]) {
			case WeightA, WeightB, WeightC, WeightD:
				w = Weight(part[n-1])
				part = part[:n-1]
			}
		}
		pos, err := strconv.Atoi(part)
		if err != nil || pos < 1 {
			return nil, fmt.Errorf("invalid position %q", part)
		}
		positions = append(positions, Position{Pos: pos, Weight: w})
	}
	return positions, nil
}

// Value implements the driver.Valuer interface for database serialization.
func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = Vector{}
		return nil
	}
	var text string
	switch t := value.(type) {
	case []byte:
		text = string(t)
	case string:
		text = t
	default:
		return errors.New("failed to scan Vector")
	}
	parsed, err := ParseVector(text)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

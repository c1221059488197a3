package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Analyzer kinds.
const (
	AnalyzerWord   = "word"
	AnalyzerChar   = "char"
	AnalyzerCharWB = "char_wb"
)

// DefaultTokenPattern is the word pattern fitted vectorizers usually carry.
const DefaultTokenPattern = `(?u)\b\w\w+\b`

// RE2 \w, \d, \s and \b are ASCII-only. Token patterns are rewritten to the
// Unicode classes these escapes match in fitted artifacts.
const (
	unicodeWord     = `\p{L}\p{N}_`
	unicodeDigit    = `\p{Nd}`
	unicodeSpace    = `\s\v\p{Z}`
	notUnicodeDigit = `\P{Nd}`
	wordClass       = `[` + unicodeWord + `]`
	notWordClass    = `[^` + unicodeWord + `]`
	spaceClass      = `[` + unicodeSpace + `]`
	notSpaceClass   = `[^` + unicodeSpace + `]`
)

// boundedWordRun matches patterns of the form \b<\w repetitions>\b. Greedy
// leftmost matching of a word-class run already starts and ends on word
// boundaries, so the \b anchors can be dropped.
var boundedWordRun = regexp.MustCompile(`^\\b((?:\\w(?:[+*?]|\{\d+(?:,\d*)?\})?)+)\\b$`)

var multiSpace = regexp.MustCompile(`[\s\p{Z}]{2,}`)

// analyzer splits a preprocessed document into the terms counted by the vectorizer.
type analyzer struct {
	kind      string
	token     *regexp.Regexp
	useGroup  bool
	stopWords map[string]struct{}
	minN      int
	maxN      int
}

func newAnalyzer(kind, pattern string, ngram [2]int, stopWords []string) (*analyzer, error) {
	if kind == "" {
		kind = AnalyzerWord
	}
	minN, maxN := ngram[0], ngram[1]
	if minN == 0 && maxN == 0 {
		minN, maxN = 1, 1
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("%w: ngram_range [%d, %d]", ErrInvalidArtifact, ngram[0], ngram[1])
	}
	a := &analyzer{kind: kind, minN: minN, maxN: maxN}

	switch kind {
	case AnalyzerWord:
		re, err := compileTokenPattern(pattern)
		if err != nil {
			return nil, err
		}
		switch re.NumSubexp() {
		case 0:
		case 1:
			a.useGroup = true
		default:
			return nil, fmt.Errorf("%w: token_pattern has more than one capturing group", ErrInvalidArtifact)
		}
		a.token = re
		if len(stopWords) > 0 {
			a.stopWords = make(map[string]struct{}, len(stopWords))
			for _, w := range stopWords {
				a.stopWords[w] = struct{}{}
			}
		}
	case AnalyzerChar, AnalyzerCharWB:
	default:
		return nil, fmt.Errorf("%w: analyzer %q", ErrInvalidArtifact, kind)
	}
	return a, nil
}

func compileTokenPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = DefaultTokenPattern
	}
	translated, err := translateTokenPattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: token_pattern %q: %v", ErrInvalidArtifact, pattern, err)
	}
	re, err := regexp.Compile(translated)
	if err != nil {
		return nil, fmt.Errorf("%w: token_pattern %q: %v", ErrInvalidArtifact, pattern, err)
	}
	return re, nil
}

// translateTokenPattern rewrites the Unicode-aware escapes of a token pattern
// into explicit RE2 classes. Word boundaries are only supported around a run
// of word characters; anywhere else they would silently fall back to ASCII.
func translateTokenPattern(pattern string) (string, error) {
	pattern = strings.TrimPrefix(pattern, "(?u)")
	if m := boundedWordRun.FindStringSubmatch(pattern); m != nil {
		pattern = m[1]
	}

	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '\\' || i+1 == len(pattern) {
			switch {
			case c == '[' && !inClass:
				inClass = true
				b.WriteByte(c)
				// a leading ']' or '^]' is a literal
				if strings.HasPrefix(pattern[i+1:], "^]") {
					b.WriteString("^]")
					i += 2
				} else if strings.HasPrefix(pattern[i+1:], "]") {
					b.WriteByte(']')
					i++
				}
				continue
			case c == ']' && inClass:
				inClass = false
			}
			b.WriteByte(c)
			continue
		}

		i++
		esc := pattern[i]
		switch esc {
		case 'w':
			b.WriteString(pick(inClass, unicodeWord, wordClass))
		case 'd':
			b.WriteString(unicodeDigit)
		case 'D':
			b.WriteString(notUnicodeDigit)
		case 's':
			b.WriteString(pick(inClass, unicodeSpace, spaceClass))
		case 'W', 'S':
			if inClass {
				return "", fmt.Errorf("\\%c inside a character class is not supported", esc)
			}
			b.WriteString(pick(esc == 'W', notWordClass, notSpaceClass))
		case 'b', 'B':
			return "", fmt.Errorf("\\%c is only supported around a run of \\w", esc)
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String(), nil
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func (a *analyzer) analyze(doc string) []string {
	switch a.kind {
	case AnalyzerChar:
		return a.charNgrams(doc)
	case AnalyzerCharWB:
		return a.charWBNgrams(doc)
	default:
		return a.wordNgrams(a.tokenize(doc))
	}
}

func (a *analyzer) tokenize(doc string) []string {
	if !a.useGroup {
		tokens := a.token.FindAllString(doc, -1)
		if a.stopWords == nil {
			return tokens
		}
		kept := tokens[:0]
		for _, t := range tokens {
			if _, stop := a.stopWords[t]; !stop {
				kept = append(kept, t)
			}
		}
		return kept
	}
	matches := a.token.FindAllStringSubmatch(doc, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, stop := a.stopWords[m[1]]; stop {
			continue
		}
		tokens = append(tokens, m[1])
	}
	return tokens
}

func (a *analyzer) wordNgrams(tokens []string) []string {
	if a.maxN == 1 {
		return tokens
	}
	minN := a.minN
	var out []string
	if minN == 1 {
		out = append(out, tokens...)
		minN++
	}
	for n := minN; n <= a.maxN && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func (a *analyzer) charNgrams(doc string) []string {
	text := []rune(multiSpace.ReplaceAllString(doc, " "))
	minN := a.minN
	var out []string
	if minN == 1 {
		for _, r := range text {
			out = append(out, string(r))
		}
		minN++
	}
	for n := minN; n <= a.maxN && n <= len(text); n++ {
		for i := 0; i+n <= len(text); i++ {
			out = append(out, string(text[i:i+n]))
		}
	}
	return out
}

func (a *analyzer) charWBNgrams(doc string) []string {
	var out []string
	for _, word := range strings.Fields(multiSpace.ReplaceAllString(doc, " ")) {
		w := []rune(" " + word + " ")
		for n := a.minN; n <= a.maxN; n++ {
			offset := 0
			out = append(out, string(w[offset:min(offset+n, len(w))]))
			for offset+n < len(w) {
				offset++
				out = append(out, string(w[offset:offset+n]))
			}
			// a word shorter than n is counted once
			if offset == 0 {
				break
			}
		}
	}
	return out
}

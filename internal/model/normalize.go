package model

import (
	"fmt"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Accent stripping modes.
const (
	StripAccentsNone    = ""
	StripAccentsASCII   = "ascii"
	StripAccentsUnicode = "unicode"
)

// preprocessor applies accent stripping and lowercasing to a raw document.
// Transformers and casers from x/text are stateful, so each call builds its own.
type preprocessor struct {
	stripAccents string
	lowercase    bool
}

func newPreprocessor(stripAccents string, lowercase bool) (preprocessor, error) {
	switch stripAccents {
	case StripAccentsNone, StripAccentsASCII, StripAccentsUnicode:
	default:
		return preprocessor{}, fmt.Errorf("%w: strip_accents %q", ErrInvalidArtifact, stripAccents)
	}
	return preprocessor{stripAccents: stripAccents, lowercase: lowercase}, nil
}

func (p preprocessor) apply(doc string) (string, error) {
	var err error
	switch p.stripAccents {
	case StripAccentsUnicode:
		t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
		doc, _, err = transform.String(t, doc)
	case StripAccentsASCII:
		t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxASCII
		})))
		doc, _, err = transform.String(t, doc)
	}
	if err != nil {
		return "", fmt.Errorf("strip accents: %w", err)
	}
	if p.lowercase {
		doc = cases.Lower(language.Und).String(doc)
	}
	return doc, nil
}

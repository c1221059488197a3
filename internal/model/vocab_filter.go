package model

import (
	"github.com/willf/bloom"
)

// vocabFilterFPRate is the target false-positive rate of the vocabulary prefilter (~1%).
const vocabFilterFPRate = 0.01

// vocabFilter answers "definitely not in the vocabulary" without touching the
// vocabulary map. Out-of-vocabulary terms dominate in char n-gram analyzers.
type vocabFilter struct {
	bf *bloom.BloomFilter
}

func newVocabFilter(vocabulary map[string]int) *vocabFilter {
	n := uint(len(vocabulary))
	if n == 0 {
		n = 1
	}
	bf := bloom.NewWithEstimates(n, vocabFilterFPRate)
	for term := range vocabulary {
		bf.Add([]byte(term))
	}
	return &vocabFilter{bf: bf}
}

func (f *vocabFilter) mayContain(term string) bool {
	return f.bf.Test([]byte(term))
}

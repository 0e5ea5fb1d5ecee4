package dataset

import (
	"hash/fnv"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// IDFunc derives a question identifier from question text.
// Identifier derivation is pluggable so callers can choose between
// reload-stable and per-load identities, and so tests can pin the output.
type IDFunc func(question string) string

const (
	idPrefixLen = 20
	idSuffixLen = 5
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var nonWord = regexp.MustCompile(`\W+`)

// SeededIDs returns an IDFunc that appends a random base-36 suffix drawn
// from the given source. Identifiers are not stable across reloads of the
// same dataset; use StableIDs when that matters.
func SeededIDs(rng *rand.Rand) IDFunc {
	return func(question string) string {
		suffix := make([]byte, idSuffixLen)
		for n := range suffix {
			suffix[n] = base36[rng.Intn(len(base36))]
		}
		return idPrefix(question) + "_" + string(suffix)
	}
}

// StableIDs derives the suffix from a hash of the full question text,
// producing identifiers that survive dataset reloads.
func StableIDs(question string) string {
	h := fnv.New32a()
	h.Write([]byte(question))

	suffix := strconv.FormatUint(uint64(h.Sum32()), 36)
	if len(suffix) > idSuffixLen {
		suffix = suffix[:idSuffixLen]
	}
	for len(suffix) < idSuffixLen {
		suffix = "0" + suffix
	}

	return idPrefix(question) + "_" + suffix
}

func idPrefix(question string) string {
	prefix := question
	if len(prefix) > idPrefixLen {
		prefix = prefix[:idPrefixLen]
	}
	return strings.ToLower(nonWord.ReplaceAllString(prefix, "_"))
}

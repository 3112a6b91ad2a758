package similarity

import (
	"github.com/agnivade/levenshtein"
)

// MaxCompareLength bounds the runes compared from each input
const MaxCompareLength = 500

// Similarity returns 1 - editDistance(a,b)/max(len(a),len(b)) in [0,1],
// measured in runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra := truncate([]rune(a))
	rb := truncate([]rune(b))

	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	distance := levenshtein.ComputeDistance(string(ra), string(rb))
	return 1 - float64(distance)/float64(maxLen)
}

func truncate(r []rune) []rune {
	if len(r) > MaxCompareLength {
		return r[:MaxCompareLength]
	}
	return r
}

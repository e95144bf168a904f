package recurring

const (
	winklerPrefixCap   = 4
	winklerScaleFactor = 0.1
)

// Similarity returns the Jaro-Winkler similarity of a and b in [0, 1].
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	s1, s2 := []rune(a), []rune(b)
	maxLen := max(len(s1), len(s2))
	if maxLen == 0 {
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}

	matchWindow := max(0, maxLen/2-1)
	s1Matches := make([]bool, len(s1))
	s2Matches := make([]bool, len(s2))

	matches := 0
	for i := range s1 {
		start := max(0, i-matchWindow)
		end := min(i+matchWindow+1, len(s2))
		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := range s1 {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len(s1)) + m/float64(len(s2)) + (m-float64(transpositions)/2)/m) / 3

	prefix := 0
	for i := 0; i < min(len(s1), len(s2), winklerPrefixCap); i++ {
		if s1[i] != s2[i] {
			break
		}
		prefix++
	}

	return jaro + float64(prefix)*winklerScaleFactor*(1-jaro)
}

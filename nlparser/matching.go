package nlparser

import (
	"strings"

	"github.com/driftlog/aiops/storage"
)

type matchResult struct {
	id         string
	name       string
	confidence float64
}

// matchProject scores every candidate project against text and keeps
// the best match at or above 0.3, mirroring _match_project's three
// signals: substring containment, sequence-similarity ratio, and a
// word-hit ratio over words longer than two characters.
func matchProject(text string, projects []*storage.Project) *matchResult {
	lower := strings.ToLower(text)

	var best *matchResult
	for _, proj := range projects {
		nameLower := strings.ToLower(proj.Name)

		if strings.Contains(lower, nameLower) {
			return &matchResult{id: proj.ID, name: proj.Name, confidence: 0.95}
		}

		score := ratio(nameLower, lower)
		wordScore := wordHitRatio(nameLower, lower, 2)
		combined := score
		if wordScore > combined {
			combined = wordScore
		}

		if combined >= 0.3 && (best == nil || combined > best.confidence) {
			best = &matchResult{id: proj.ID, name: proj.Name, confidence: combined}
		}
	}
	return best
}

// matchTask scores the candidate tasks belonging to projectID, using
// substring containment then a plain sequence ratio, per _match_task.
func matchTask(text string, tasks []*storage.Task, projectID string) *matchResult {
	lower := strings.ToLower(text)

	var best *matchResult
	for _, task := range tasks {
		if task.ProjectID != projectID {
			continue
		}
		nameLower := strings.ToLower(task.Name)

		if strings.Contains(lower, nameLower) {
			return &matchResult{id: task.ID, name: task.Name, confidence: 0.95}
		}

		score := ratio(nameLower, lower)
		if score > 0.4 && (best == nil || score > best.confidence) {
			best = &matchResult{id: task.ID, name: task.Name, confidence: score}
		}
	}
	return best
}

// wordHitRatio returns the fraction of name's words (longer than
// minLen characters) that appear as whole words in text.
func wordHitRatio(name, text string, minLen int) float64 {
	words := strings.Fields(name)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if len(w) > minLen && containsWord(text, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// ratio mirrors Python's difflib.SequenceMatcher.ratio(): twice the
// total length of the longest matching contiguous blocks (found
// greedily, then recursed into the unmatched left/right remainders)
// over the combined length of both strings. A plain longest-common-
// subsequence measure overstates similarity for a short project name
// against a long free-text sentence, since LCS lets characters match
// in any non-contiguous order; block matching only credits runs that
// actually appear together, which is what keeps unrelated sentences
// from scoring above the match thresholds.
func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	matched := matchingBlocksLength(a, b)
	return 2 * float64(matched) / float64(len(a)+len(b))
}

func matchingBlocksLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingBlocksLength(a[:ai], b[:bi]) + matchingBlocksLength(a[ai+size:], b[bi+size:])
}

// longestCommonSubstring returns the start offsets and length of the
// longest contiguous run shared by a and b.
func longestCommonSubstring(a, b string) (aStart, bStart, length int) {
	m, n := len(a), len(b)
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	best, bestA, bestB := 0, 0, 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
					bestA = i - best
					bestB = j - best
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return bestA, bestB, best
}

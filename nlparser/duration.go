package nlparser

import (
	"regexp"
	"strconv"
	"strings"
)

// durationPattern pairs a regex against lower-cased input with a
// converter from its capture groups to whole seconds. Order matters:
// patterns are tried in sequence and the first match wins, mirroring
// nlp_service.py's DURATION_PATTERNS table exactly.
type durationPattern struct {
	re      *regexp.Regexp
	convert func(m []string) (int, bool)
}

var durationPatterns = []durationPattern{
	{
		re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`),
		convert: func(m []string) (int, bool) {
			f, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, false
			}
			return int(f * 3600), true
		},
	},
	{
		re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:minutes?|mins?|m)\b`),
		convert: func(m []string) (int, bool) {
			f, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, false
			}
			return int(f * 60), true
		},
	},
	{
		re: regexp.MustCompile(`(\d+):(\d+)`),
		convert: func(m []string) (int, bool) {
			h, err1 := strconv.Atoi(m[1])
			mi, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				return 0, false
			}
			return h*3600 + mi*60, true
		},
	},
	{
		re: regexp.MustCompile(`(\d+)h\s*(\d+)?m?`),
		convert: func(m []string) (int, bool) {
			h, err := strconv.Atoi(m[1])
			if err != nil {
				return 0, false
			}
			mi := 0
			if m[2] != "" {
				mi, _ = strconv.Atoi(m[2])
			}
			return h*3600 + mi*60, true
		},
	},
	{
		re: regexp.MustCompile(`(\d+)\s+and\s+a\s+half\s+hours?`),
		convert: func(m []string) (int, bool) {
			f, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, false
			}
			return int(f*3600 + 1800), true
		},
	},
	{
		re: regexp.MustCompile(`half\s+(?:an?\s+)?hours?`),
		convert: func(m []string) (int, bool) { return 1800, true },
	},
	{
		re: regexp.MustCompile(`quarter\s+hours?`),
		convert: func(m []string) (int, bool) { return 900, true },
	},
}

// parseDuration scans text for the first matching duration pattern and
// returns its value in seconds along with the matched substring.
func parseDuration(text string) (seconds int, original string, ok bool) {
	lower := strings.ToLower(text)
	for _, p := range durationPatterns {
		loc := p.re.FindStringSubmatchIndex(lower)
		if loc == nil {
			continue
		}
		match := p.re.FindStringSubmatch(lower)
		s, valid := p.convert(match)
		if !valid {
			continue
		}
		return s, lower[loc[0]:loc[1]], true
	}
	return 0, "", false
}

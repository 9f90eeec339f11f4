package ingest

import "strings"

// A columnRule is one pure detection strategy: headers in, column index
// out (-1 when the rule does not apply). Rules for each semantic column
// are evaluated in fixed priority order, exact matches before keyword
// scans, so detection stays deterministic across uploads.
type columnRule func(headers []string) int

func detectColumn(headers []string, rules ...columnRule) int {
	for _, rule := range rules {
		if idx := rule(headers); idx >= 0 {
			return idx
		}
	}
	return -1
}

// exactMatch matches a header verbatim against any of the given names.
func exactMatch(names ...string) columnRule {
	return func(headers []string) int {
		for _, name := range names {
			for i, h := range headers {
				if h == name {
					return i
				}
			}
		}
		return -1
	}
}

// exactMatchFold is exactMatch with case-insensitive, trimmed compare.
func exactMatchFold(names ...string) columnRule {
	return func(headers []string) int {
		for i, h := range headers {
			norm := strings.ToLower(strings.TrimSpace(h))
			for _, name := range names {
				if norm == name {
					return i
				}
			}
		}
		return -1
	}
}

// keywordScan matches the first header containing any keyword as a
// substring, skipping headers that contain one of the skip markers.
func keywordScan(keywords []string, skip ...string) columnRule {
	return func(headers []string) int {
		for i, h := range headers {
			norm := strings.ToLower(strings.TrimSpace(h))
			if containsAny(norm, skip) {
				continue
			}
			if containsAny(norm, keywords) {
				return i
			}
		}
		return -1
	}
}

// keywordScanNormalized is keywordScan over accent-and-HTML-normalized
// headers, for exports whose encodings mangled accented column names.
func keywordScanNormalized(keywords []string) columnRule {
	return func(headers []string) int {
		for i, h := range headers {
			norm := normalizeHeader(h)
			if containsAny(norm, keywords) {
				return i
			}
		}
		return -1
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var accentFold = strings.NewReplacer(
	"ã", "a", "á", "a", "à", "a", "â", "a",
	"é", "e", "ê", "e", "è", "e",
	"í", "i", "ì", "i", "î", "i",
	"ó", "o", "ô", "o", "õ", "o", "ò", "o",
	"ú", "u", "ù", "u", "û", "u",
	"ç", "c", "§", "c",
	"ñ", "n",
)

// normalizeHeader lowercases, strips HTML leftovers and accents, and
// drops any remaining non-ASCII bytes.
func normalizeHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.NewReplacer("&nbsp;", "", "&", "", "<", "", ">", "").Replace(s)
	s = accentFold.Replace(s)
	var b strings.Builder
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Semantic column detectors. Priority order matters: an exact header hit
// always beats a keyword scan.

func detectTimestampColumn(headers []string) int {
	return detectColumn(headers,
		exactMatchFold("data", "date", "datetime"),
		// "parcial" and "carimbo" flag metadata columns, not call times
		keywordScan([]string{"hora", "time", "timestamp", "dt"}, "parcial", "carimbo"),
	)
}

func detectPhoneColumn(headers []string) int {
	return detectColumn(headers,
		exactMatch("ANI"),
		keywordScan([]string{"telefone", "phone", "numero", "número", "fone", "tel", "ani"}),
	)
}

func detectDurationColumn(headers []string) int {
	return detectColumn(headers,
		keywordScanNormalized([]string{"duracao", "duration", "tempo", "tma"}),
	)
}

func detectConversationIDColumn(headers []string) int {
	return detectColumn(headers,
		exactMatch("ID de conversa"),
		keywordScan([]string{"id", "conversa", "protocolo", "ticket", "call_id"}),
	)
}

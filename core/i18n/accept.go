package i18n

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Oversized Accept-Language headers are truncated before parsing.
const maxAcceptLanguageLength = 4096

type languageTag struct {
	tag     string
	quality float64
}

// ParseAcceptLanguage picks the best language from available for the given
// Accept-Language header. Quality values are honored and a bare primary tag
// matches regional variants ("en" matches "en-US"). With no usable match the
// first available language wins.
func ParseAcceptLanguage(header string, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if header == "" {
		return available[0]
	}

	for _, tag := range parseLanguageTags(header) {
		for _, avail := range available {
			if matchesLanguage(tag.tag, avail) {
				return avail
			}
		}
	}
	return available[0]
}

func parseLanguageTags(header string) []languageTag {
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}

	var tags []languageTag
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		quality := 1.0
		langPart := part
		if idx := strings.Index(part, ";"); idx != -1 {
			langPart = strings.TrimSpace(part[:idx])
			if qPart, ok := strings.CutPrefix(strings.TrimSpace(part[idx+1:]), "q="); ok {
				if q, err := strconv.ParseFloat(qPart, 64); err == nil && q >= 0 && q <= 1 {
					quality = q
				}
			}
		}
		if langPart != "" && langPart != "*" {
			tags = append(tags, languageTag{tag: normalizeTag(langPart), quality: quality})
		}
	}

	slices.SortStableFunc(tags, func(a, b languageTag) int {
		return cmp.Compare(b.quality, a.quality)
	})
	return tags
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func matchesLanguage(requested, available string) bool {
	available = normalizeTag(available)
	if requested == available {
		return true
	}
	reqBase, _, _ := strings.Cut(requested, "-")
	availBase, _, _ := strings.Cut(available, "-")
	return reqBase == availBase
}

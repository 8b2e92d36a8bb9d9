package catalog

import (
	"sort"
	"strings"
)

// tagKeywords maps topic tags to the keywords that assign them.
// Classification is a pure function of document content at scrape time:
// deterministic and order-independent.
var tagKeywords = map[string][]string{
	"disaster": {
		"防災", "災害", "避難", "緊急", "地震", "津波", "台風",
		"洪水", "土砂災害", "警報",
		"disaster", "emergency", "evacuation",
	},
	"weather": {
		"気象", "天気", "天候", "降水", "weather", "forecast",
	},
	"sensor": {
		"センサー", "水位", "雨量", "カメラ", "観測",
		"sensor", "gauge", "camera",
	},
	"facility": {
		"施設", "病院", "救護", "貯水", "facility", "hospital", "station",
	},
}

// Classify assigns topic tags to a document by scanning its name,
// description, attribute fields, and endpoint paths against the fixed
// keyword table. The returned slice is sorted and duplicate-free.
func Classify(doc *Document) []string {
	var b strings.Builder
	b.WriteString(doc.Name)
	b.WriteByte(' ')
	b.WriteString(doc.Description)
	for _, attr := range doc.Attributes {
		b.WriteByte(' ')
		b.WriteString(attr.Name)
		b.WriteByte(' ')
		b.WriteString(attr.Description)
	}
	for _, ep := range doc.Endpoints {
		b.WriteByte(' ')
		b.WriteString(ep.Path)
	}

	text := strings.ToLower(b.String())

	tags := make([]string, 0, len(tagKeywords))
	for tag, keywords := range tagKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				tags = append(tags, tag)
				break
			}
		}
	}

	sort.Strings(tags)
	return tags
}

// IsDisasterRelated reports whether the given text matches any
// disaster keyword.
func IsDisasterRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range tagKeywords["disaster"] {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

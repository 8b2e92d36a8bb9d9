package catalog

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// indexParser parses the catalog index page into per-API entries.
type indexParser struct {
	baseURL *url.URL
}

func newIndexParser(baseURL string) (*indexParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &indexParser{baseURL: u}, nil
}

// parseIndex extracts the set of per-API detail links from the index
// page markup. Malformed or unparseable links are skipped and counted,
// never fatal.
func (p *indexParser) parseIndex(html string) (entries []indexEntry, skipped int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]bool)

	doc.Find("div.api-item, div.api-card, section.api-item, section.api-card").Each(func(i int, s *goquery.Selection) {
		entry := indexEntry{}

		if title := s.Find("h2, h3, a").First(); title.Length() > 0 {
			entry.Name = strings.TrimSpace(title.Text())
		}
		if desc := s.Find("p.description, div.description, p.desc, div.desc").First(); desc.Length() > 0 {
			entry.Description = strings.TrimSpace(desc.Text())
		}

		href, ok := s.Find("a[href]").First().Attr("href")
		if !ok || href == "" {
			skipped++
			return
		}
		resolved := p.resolveURL(href)
		if resolved == "" {
			skipped++
			return
		}
		entry.DetailURL = resolved
		entry.ID = idFromLink(resolved, entry.Name)
		if entry.ID == "" || seen[entry.ID] {
			skipped++
			return
		}
		seen[entry.ID] = true
		entries = append(entries, entry)
	})

	// Fallback: plain link lists on catalogs without card markup.
	if len(entries) == 0 {
		doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			text := strings.TrimSpace(s.Text())
			if !looksLikeAPILink(href, text) {
				return
			}
			resolved := p.resolveURL(href)
			if resolved == "" {
				skipped++
				return
			}
			id := idFromLink(resolved, text)
			if id == "" || seen[id] {
				return
			}
			seen[id] = true
			entries = append(entries, indexEntry{
				ID:        id,
				Name:      text,
				DetailURL: resolved,
			})
		})
	}

	return entries, skipped, nil
}

// resolveURL resolves a relative URL against the catalog base URL.
// Returns "" for non-HTTP schemes and bare anchors.
func (p *indexParser) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func looksLikeAPILink(href, text string) bool {
	h := strings.ToLower(href)
	t := strings.ToLower(text)
	for _, kw := range []string{"api", "service", "endpoint", "data", "entities"} {
		if strings.Contains(h, kw) || strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

var idSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// idFromLink derives a stable document identifier from the detail link
// slug, falling back to a sanitized display name.
func idFromLink(link, name string) string {
	if u, err := url.Parse(link); err == nil {
		path := strings.Trim(u.Path, "/")
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			path = path[idx+1:]
		}
		if path != "" && path != "catalog" {
			return idSanitizer.ReplaceAllString(path, "_")
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return idSanitizer.ReplaceAllString(strings.ReplaceAll(name, " ", "_"), "_")
}

// Column headers that mark an attribute/parameter table on detail pages.
var attributeHeaderNames = []string{"パラメータ", "属性", "Parameter", "Attribute", "Name"}

// parseDetail extracts attributes, endpoints, and example payloads from
// a detail page. A page that fails to yield any structured content
// produces an empty result, not an error; the scraper marks the
// document partial.
func parseDetail(html string) (attrs []Attribute, endpoints []Endpoint, examples []json.RawMessage, ok bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, nil, false
	}

	// Attribute tables: first column is the attribute name, remaining
	// columns type and description in documented order.
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var headers []string
		table.Find("th").Each(func(i int, th *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(th.Text()))
		})
		if !hasAttributeHeader(headers) {
			return
		}

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			var cells []string
			row.Find("td").Each(func(i int, td *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(td.Text()))
			})
			if len(cells) == 0 || cells[0] == "" {
				return
			}
			attr := Attribute{Name: cells[0]}
			if len(cells) > 1 {
				attr.Type = cells[1]
			}
			if len(cells) > 2 {
				attr.Description = cells[2]
			}
			attrs = append(attrs, attr)
		})
	})

	// Endpoint definitions live in code/pre blocks.
	doc.Find("code.endpoint, pre.endpoint, code.url, pre.url").Each(func(i int, s *goquery.Selection) {
		if ep := parseEndpointText(s.Text()); ep.Path != "" {
			endpoints = append(endpoints, ep)
		}
	})
	if len(endpoints) == 0 {
		doc.Find("code, pre").Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if hasMethodPrefix(text) {
				if ep := parseEndpointText(text); ep.Path != "" {
					endpoints = append(endpoints, ep)
				}
			}
		})
	}

	// Example payloads: JSON embedded in schema/example blocks.
	doc.Find("div.data-model, section.data-model, div.schema, section.schema, pre.example, code.example").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if raw := extractJSON(text); raw != nil {
			examples = append(examples, raw)
		}
	})

	ok = len(attrs) > 0 || len(endpoints) > 0 || len(examples) > 0
	return attrs, endpoints, examples, ok
}

func hasAttributeHeader(headers []string) bool {
	for _, h := range headers {
		for _, want := range attributeHeaderNames {
			if strings.EqualFold(h, want) {
				return true
			}
		}
	}
	return false
}

var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

func hasMethodPrefix(text string) bool {
	for _, m := range httpMethods {
		if strings.HasPrefix(text, m+" ") {
			return true
		}
	}
	return false
}

// parseEndpointText parses strings like "GET /v2/entities?type=Aed".
func parseEndpointText(text string) Endpoint {
	text = strings.TrimSpace(text)
	if text == "" {
		return Endpoint{}
	}

	ep := Endpoint{}
	for _, m := range httpMethods {
		if strings.HasPrefix(text, m+" ") {
			ep.Method = m
			text = strings.TrimSpace(strings.TrimPrefix(text, m))
			break
		}
	}

	if idx := strings.IndexByte(text, '?'); idx >= 0 {
		for _, pair := range strings.Split(text[idx+1:], "&") {
			if name, _, found := strings.Cut(pair, "="); found && name != "" {
				ep.Parameters = append(ep.Parameters, name)
			} else if pair != "" {
				ep.Parameters = append(ep.Parameters, pair)
			}
		}
		text = text[:idx]
	}

	ep.Path = text
	return ep
}

// extractJSON returns the first JSON value found in text, or nil.
func extractJSON(text string) json.RawMessage {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil
	}
	candidate := text[start:]
	if !json.Valid([]byte(candidate)) {
		return nil
	}
	return json.RawMessage(candidate)
}

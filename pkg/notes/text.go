package notes

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/orsinium-labs/stopwords"

	"github.com/kittclouds/kiwii/internal/store"
	"github.com/kittclouds/kiwii/pkg/docstore"
)

// blockSelector lists elements whose boundaries separate words.
const blockSelector = "p, div, li, br, h1, h2, h3, h4, h5, h6, blockquote, pre, tr, td, th"

// PlainText flattens editor HTML into a single line of text.
func PlainText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Remove()
	doc.Find(blockSelector).Each(func(i int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// Preview returns the plain text of a note, or NoContent when it is empty.
// The flattened text is cached per note version.
func (s *Service) Preview(n *store.Note) string {
	if text := s.text(n); text != "" {
		return text
	}
	return NoContent
}

// text returns the cached plain text of n, flattening it on a miss.
func (s *Service) text(n *store.Note) string {
	if text, ok := s.docs.Lookup(n.ID, n.Version); ok {
		return text
	}

	text, err := PlainText(n.Content)
	if err != nil {
		s.log.Warn("note preview failed", "id", n.ID, "error", err)
		return ""
	}
	s.docs.Upsert(n.ID, text, n.Version)
	return text
}

// Hydrate fills the preview cache for every current note.
func (s *Service) Hydrate() (int, error) {
	all, err := s.List()
	if err != nil {
		return 0, err
	}

	docs := make([]docstore.Document, 0, len(all))
	for _, n := range all {
		text, err := PlainText(n.Content)
		if err != nil {
			s.log.Warn("skipping note during hydrate", "id", n.ID, "error", err)
			continue
		}
		docs = append(docs, docstore.Document{ID: n.ID, Text: text, Version: n.Version})
	}
	return s.docs.Hydrate(docs), nil
}

var english = stopwords.MustGet("en")

// Keywords returns up to limit of the most frequent non-stopword terms in a note.
// Ties are broken alphabetically.
func (s *Service) Keywords(id string, limit int) ([]string, error) {
	note, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	return keywords(note.Title+" "+s.text(note), limit), nil
}

func keywords(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	counts := make(map[string]int)
	for _, w := range words {
		w = strings.Trim(w, "'")
		if len([]rune(w)) < 3 || english.Contains(w) || isNumber(w) {
			continue
		}
		counts[w]++
	}

	terms := make([]string, 0, len(counts))
	for w := range counts {
		terms = append(terms, w)
	}
	slices.SortFunc(terms, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

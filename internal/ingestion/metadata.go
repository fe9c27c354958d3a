package ingestion

import (
	"path/filepath"
	"strings"
	"unicode"
)

// acronyms maps lowercase filename tokens that should render fully
// capitalised in document titles rather than title-cased.
var acronyms = map[string]string{
	"nelfund": "NELFUND",
	"faq":     "FAQ",
	"faqs":    "FAQs",
	"tor":     "ToR",
	"mou":     "MoU",
	"id":      "ID",
	"jamb":    "JAMB",
	"nin":     "NIN",
	"bvn":     "BVN",
}

// TitleFromPath derives a human-readable document title from a file path.
// The extension is dropped, separators become spaces, and each word is
// title-cased with known acronyms fully capitalised:
//
//	nelfund-application-guidelines.pdf  →  NELFUND Application Guidelines
//	repayment_faq.md                    →  Repayment FAQ
//
// Citations shown to students use this title, so it should read like a
// document name rather than a filename.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
	})

	for i, w := range words {
		lower := strings.ToLower(w)
		if canonical, ok := acronyms[lower]; ok {
			words[i] = canonical
			continue
		}
		words[i] = titleCase(lower)
	}

	return strings.Join(words, " ")
}

// titleCase upper-cases the first rune of w.
func titleCase(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(w)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

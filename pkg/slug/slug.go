package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var nordic = strings.NewReplacer(
	"ä", "a", "ö", "o", "å", "a",
	"é", "e", "ü", "u", "æ", "ae", "ø", "o",
	"š", "s", "ž", "z",
)

// Make turns a product name into the URL segment the storefront uses:
// lower case ASCII words joined by single hyphens.
//
//	"Villasukat, harmaa" -> "villasukat-harmaa"
//	"Pellavamekko Äitiys" -> "pellavamekko-aitiys"
func Make(name string) string {
	s := nordic.Replace(strings.ToLower(strings.TrimSpace(name)))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}

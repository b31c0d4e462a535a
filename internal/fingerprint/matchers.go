package fingerprint

import (
	"net/http"
	"strings"
)

// Signature maps a case-insensitive body token to a label.
type Signature struct {
	Token string
	Label string
}

// Matcher tests one category against its signature table.
type Matcher struct {
	Category   Category
	Signatures []Signature
}

// CMSSignatures detect content management systems.
var CMSSignatures = []Signature{
	{Token: "wp-content", Label: "WordPress"},
	{Token: "drupal.js", Label: "Drupal"},
	{Token: "Joomla!", Label: "Joomla"},
}

// JSFrameworkSignatures detect JavaScript libraries and frontends.
var JSFrameworkSignatures = []Signature{
	{Token: "jquery", Label: "jQuery"},
	{Token: "react", Label: "React"},
	{Token: "vue", Label: "Vue.js"},
	{Token: "angular", Label: "Angular"},
}

// CSSFrameworkSignatures detect CSS frameworks.
var CSSFrameworkSignatures = []Signature{
	{Token: "bootstrap", Label: "Bootstrap"},
	{Token: "tailwind", Label: "Tailwind CSS"},
}

// BackendSignatures detect server-side frameworks.
var BackendSignatures = []Signature{
	{Token: "django", Label: "Django"},
	{Token: "flask", Label: "Flask"},
	{Token: "express", Label: "Express"},
	{Token: "laravel", Label: "Laravel"},
	{Token: "asp.net", Label: "ASP.NET"},
}

// DatabaseSignatures detect database hints.
var DatabaseSignatures = []Signature{
	{Token: "mysql", Label: "MySQL"},
	{Token: "postgresql", Label: "PostgreSQL"},
	{Token: "mongodb", Label: "MongoDB"},
	{Token: "firebase", Label: "Firebase"},
}

// BodyMatchers is the set of body matchers run by Match.
var BodyMatchers = []Matcher{
	{Category: CategoryCMS, Signatures: CMSSignatures},
	{Category: CategoryJSFramework, Signatures: JSFrameworkSignatures},
	{Category: CategoryCSSFramework, Signatures: CSSFrameworkSignatures},
	{Category: CategoryBackend, Signatures: BackendSignatures},
	{Category: CategoryDatabase, Signatures: DatabaseSignatures},
}

// Match runs every body matcher plus the header hints over a page.
// Multiple categories may fire on the same body.
func Match(body string, headers http.Header) []Fingerprint {
	var set Set
	lowered := strings.ToLower(body)
	for _, m := range BodyMatchers {
		set.Add(m.match(lowered)...)
	}
	set.Add(MatchHeaders(headers)...)
	return set.Slice()
}

// MatchBody runs a single matcher over body.
func (m Matcher) MatchBody(body string) []Fingerprint {
	return Dedup(m.match(strings.ToLower(body)))
}

func (m Matcher) match(lowered string) []Fingerprint {
	var out []Fingerprint
	for _, sig := range m.Signatures {
		if strings.Contains(lowered, strings.ToLower(sig.Token)) {
			out = append(out, New(m.Category, sig.Label))
		}
	}
	return out
}

// MatchHeaders derives fingerprints from response headers. X-Generator
// names the CMS that produced the page.
func MatchHeaders(headers http.Header) []Fingerprint {
	if headers == nil {
		return nil
	}
	var out []Fingerprint
	if gen := strings.TrimSpace(headers.Get("X-Generator")); gen != "" {
		out = append(out, New(CategoryCMS, gen))
	}
	return out
}

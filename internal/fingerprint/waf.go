package fingerprint

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// WAFSignature lists the tokens that identify a WAF in one response header.
type WAFSignature struct {
	Header string
	Tokens []string
}

// WAFSignatures is checked in order; the first hit wins.
var WAFSignatures = []WAFSignature{
	{Header: "server", Tokens: []string{"cloudflare", "akamai", "incapsula", "sucuri"}},
	{Header: "x-powered-by", Tokens: []string{"mod_security", "sucuri"}},
	{Header: "x-cdn", Tokens: []string{"cloudflare", "imperva", "fastly"}},
}

// WAFProbeParam and WAFProbePayload form the adversarial request sent when
// no signature matched. A 403 or 406 answer is taken as WAF evidence.
const (
	WAFProbeParam   = "id"
	WAFProbePayload = "' OR 1=1 --"
)

// WAFProbePath returns the query-escaped adversarial path.
func WAFProbePath() string {
	return "/?" + url.Values{WAFProbeParam: {WAFProbePayload}}.Encode()
}

// WAFMatch is a signature hit.
type WAFMatch struct {
	Name   string // e.g. "Cloudflare WAF"
	Header string
	Token  string
}

// MatchWAF checks headers against WAFSignatures using a case-insensitive
// substring match.
func MatchWAF(headers http.Header) (WAFMatch, bool) {
	for _, sig := range WAFSignatures {
		value := strings.ToLower(headers.Get(sig.Header))
		if value == "" {
			continue
		}
		for _, token := range sig.Tokens {
			if strings.Contains(value, token) {
				return WAFMatch{
					Name:   capitalize(token) + " WAF",
					Header: sig.Header,
					Token:  token,
				}, true
			}
		}
	}
	return WAFMatch{}, false
}

// IsWAFBlockStatus reports whether a status code to the adversarial request
// counts as a block.
func IsWAFBlockStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusNotAcceptable
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

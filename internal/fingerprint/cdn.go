package fingerprint

import (
	"net/http"
	"strings"
)

// CDNEvidenceHeaders are reported verbatim when present.
var CDNEvidenceHeaders = []string{"server", "via", "x-cache", "cf-ray"}

// CDNSignature maps a header token to a provider. An empty Token matches
// on header presence alone.
type CDNSignature struct {
	Header   string
	Token    string
	Provider string
}

// CDNSignatures classify CDN providers.
var CDNSignatures = []CDNSignature{
	{Header: "cf-ray", Provider: "Cloudflare"},
	{Header: "server", Token: "cloudflare", Provider: "Cloudflare"},
	{Header: "server", Token: "akamaighost", Provider: "Akamai"},
	{Header: "x-akamai-transformed", Provider: "Akamai"},
	{Header: "x-amz-cf-id", Provider: "Amazon CloudFront"},
	{Header: "via", Token: "cloudfront", Provider: "Amazon CloudFront"},
	{Header: "x-cache", Token: "cloudfront", Provider: "Amazon CloudFront"},
	{Header: "x-served-by", Token: "cache-", Provider: "Fastly"},
	{Header: "x-cdn", Token: "fastly", Provider: "Fastly"},
	{Header: "x-cdn", Token: "imperva", Provider: "Imperva"},
	{Header: "x-iinfo", Provider: "Imperva"},
	{Header: "server", Token: "sucuri", Provider: "Sucuri"},
	{Header: "x-azure-ref", Provider: "Azure Front Door"},
	{Header: "x-vercel-cache", Provider: "Vercel"},
	{Header: "x-nf-request-id", Provider: "Netlify"},
}

// CDNEvidence returns the evidence headers found in headers, keyed by
// lower-case name.
func CDNEvidence(headers http.Header) map[string]string {
	out := make(map[string]string)
	for _, name := range CDNEvidenceHeaders {
		if v := headers.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

// MatchCDN classifies CDN providers from headers.
func MatchCDN(headers http.Header) []Fingerprint {
	var set Set
	for _, sig := range CDNSignatures {
		values := headers.Values(sig.Header)
		if len(values) == 0 {
			continue
		}
		if sig.Token == "" {
			set.Add(New(CategoryCDN, sig.Provider))
			continue
		}
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), sig.Token) {
				set.Add(New(CategoryCDN, sig.Provider))
				break
			}
		}
	}
	return set.Slice()
}

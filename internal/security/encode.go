package security

import "strings"

// The public-facing path never decodes caller-originated content; Decode
// exists for trusted server-side processing only.

// Replacer runs a single pass, so "&" is encoded without double-encoding
// the entities produced for the other characters, and the round-trip law
// Decode(Encode(s)) == s holds for any input.
var entityEncoder = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#x27;", "'",
	"&#x2F;", "/",
)

// EncodeEntities HTML-entity-encodes the characters the filter guarantees
// are inert in any downstream HTML context.
func EncodeEntities(s string) string {
	return entityEncoder.Replace(s)
}

// DecodeEntities reverses EncodeEntities.
func DecodeEntities(s string) string {
	return entityDecoder.Replace(s)
}

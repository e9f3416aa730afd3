package event

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fingerprintDomain provides domain separation for the digest.
// Version suffix enables future algorithm migration.
const fingerprintDomain = "logq/fingerprint/v1"

var (
	// ISO-style timestamps, with optional fraction and zone.
	timestampRe = regexp.MustCompile(
		`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`)

	// Absolute path tokens: two or more slash-separated segments.
	absPathRe = regexp.MustCompile(`(/[\w.+~-]+){2,}`)

	hexLiteralRe = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)
	numberRe     = regexp.MustCompile(`\d+`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Fingerprint derives the cross-run dedup key for a diagnostic.
//
// The key is a deterministic pure function of content fields only: tool
// name, category, the normalized message, and the normalized file path.
// Invocation identity and timestamps never participate, so semantically
// identical diagnostics collide across runs and machines. Collisions
// between distinct diagnostics are possible and acceptable; this is a dedup
// key, not a cryptographic commitment.
//
// Empty inputs are fine: fewer fields means a less specific key, never an
// error.
func Fingerprint(toolName, category, message, filePath string) string {
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	for _, field := range []string{
		toolName,
		category,
		NormalizeMessage(message),
		normalizePath(filePath),
	} {
		h.Write([]byte{0x00})
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DisplayFingerprint derives the short human-displayable form: the first
// word of the tool name plus the first 8 hex characters of the full key.
// Lossy; all equality comparisons use the full form.
func DisplayFingerprint(toolName, fingerprint string) string {
	word := toolName
	if i := strings.IndexAny(word, " \t"); i >= 0 {
		word = word[:i]
	}
	short := fingerprint
	if len(short) > 8 {
		short = short[:8]
	}
	if word == "" {
		return short
	}
	return word + "-" + short
}

// NormalizeMessage strips volatile substrings from a diagnostic message so
// that equivalent diagnostics across machines and runs normalize to the
// same text: timestamps removed, lowercased, absolute paths reduced to
// their tail, hex and decimal literals masked to "N", whitespace collapsed.
// Case folding happens before masking so the mask token itself stays "N",
// but after timestamp removal, which matches the uppercase T and Z forms.
func NormalizeMessage(message string) string {
	s := norm.NFC.String(message)
	s = timestampRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = absPathRe.ReplaceAllStringFunc(s, pathTail)
	s = hexLiteralRe.ReplaceAllString(s, "N")
	s = numberRe.ReplaceAllString(s, "N")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizePath reduces an absolute path to its last two segments so the
// same source file fingerprints identically regardless of checkout root.
// Relative paths pass through unchanged apart from NFC normalization.
func normalizePath(p string) string {
	p = norm.NFC.String(strings.TrimSpace(p))
	if !strings.HasPrefix(p, "/") {
		return p
	}
	return pathTail(p)
}

// pathTail keeps the final two segments of a slash-separated path.
func pathTail(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) <= 2 {
		return strings.Join(parts, "/")
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

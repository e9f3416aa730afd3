package event

// Severity values that drive classification. The severity column itself is
// an open string set: parsers may emit anything, and unrecognized values are
// stored verbatim but count as neither error nor warning for badge purposes.
// They are deliberately not coerced to "info".
const (
	SeverityError   = "error"
	SeverityFatal   = "fatal"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
	SeverityNote    = "note"
)

// IsError reports whether the severity counts as an error. "fatal" is
// treated as an error: compilers that abort emit it for what users read as
// an error.
func IsError(severity string) bool {
	return severity == SeverityError || severity == SeverityFatal
}

// IsWarning reports whether the severity counts as a warning.
func IsWarning(severity string) bool {
	return severity == SeverityWarning
}

// Badge is the coarse per-source status classification.
type Badge string

const (
	BadgeFail Badge = "FAIL"
	BadgeWarn Badge = "WARN"
	BadgeOK   Badge = "OK"
)

// BadgeFor classifies counts into a badge. Error strictly dominates warning,
// which strictly dominates ok; there is no weighting.
func BadgeFor(errorCount, warningCount int64) Badge {
	switch {
	case errorCount > 0:
		return BadgeFail
	case warningCount > 0:
		return BadgeWarn
	default:
		return BadgeOK
	}
}

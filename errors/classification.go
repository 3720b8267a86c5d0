package errors

// Classification tells a caller whether retrying might succeed. The contract
// itself never retries; this is advisory.
type Classification string

const (
	ClassificationRetryable Classification = "RETRYABLE"
	ClassificationPermanent Classification = "PERMANENT"
)

func (c Classification) IsRetryable() bool {
	return c == ClassificationRetryable
}

var classifications = map[Kind]Classification{
	KindTimeout:     ClassificationRetryable,
	KindUnavailable: ClassificationRetryable,
}

// Classify returns the classification of kind. Unknown kinds are permanent.
func Classify(kind Kind) Classification {
	if c, ok := classifications[kind]; ok {
		return c
	}

	return ClassificationPermanent
}

// IsRetryable reports whether err carries a retryable kind.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	return Classify(KindOf(err)).IsRetryable()
}

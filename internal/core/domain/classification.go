package domain

// Category is the label assigned to a post.
type Category string

// Categories. The classification agent chooses among the first six;
// SuspectedBroker is derived from a relevant listing flagged as posted by a broker.
const (
	CategoryRelevant        Category = "RELEVANT"
	CategoryBroker          Category = "BROKER"
	CategorySpam            Category = "SPAM"
	CategoryAuction         Category = "AUCTION"
	CategoryWanted          Category = "WANTED"
	CategoryQuestion        Category = "QUESTION"
	CategorySuspectedBroker Category = "SUSPECTED_BROKER"
)

// DefaultConfidenceFloor is the confidence below which a classification is
// resolved to RELEVANT.
const DefaultConfidenceFloor = 0.5

// AgentCategories lists the labels the classification agent may return.
func AgentCategories() []Category {
	return []Category{
		CategoryRelevant,
		CategoryBroker,
		CategorySpam,
		CategoryAuction,
		CategoryWanted,
		CategoryQuestion,
	}
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRelevant, CategoryBroker, CategorySpam, CategoryAuction,
		CategoryWanted, CategoryQuestion, CategorySuspectedBroker:
		return true
	default:
		return false
	}
}

// IsRelevant reports whether posts of this category get structured extraction.
func (c Category) IsRelevant() bool {
	return c == CategoryRelevant || c == CategorySuspectedBroker
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ClassificationResult is the outcome of classifying one post.
type ClassificationResult struct {
	Category   Category
	IsBroker   bool
	Confidence float64
	Reason     string
}

// Finalise applies the post-processing rules to a raw agent answer:
// unknown labels become RELEVANT, a relevant listing by a broker becomes
// SUSPECTED_BROKER, confidence is clamped to [0,1], and a confidence
// below floor forces RELEVANT.
func (r ClassificationResult) Finalise(floor float64) ClassificationResult {
	if !r.Category.IsValid() {
		r.Category = CategoryRelevant
	}
	if r.Category == CategoryRelevant && r.IsBroker {
		r.Category = CategorySuspectedBroker
	}
	switch {
	case r.Confidence < 0:
		r.Confidence = 0
	case r.Confidence > 1:
		r.Confidence = 1
	}
	if r.Confidence < floor {
		r.Category = CategoryRelevant
	}
	return r
}

// FallbackClassification is the safe default used when the agent fails.
func FallbackClassification(err error) ClassificationResult {
	reason := "AI failed"
	if err != nil {
		reason = "AI failed: " + err.Error()
	}
	return ClassificationResult{
		Category:   CategoryRelevant,
		IsBroker:   false,
		Confidence: DefaultConfidenceFloor,
		Reason:     reason,
	}
}

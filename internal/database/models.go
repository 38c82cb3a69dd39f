package database

// Analysis is a stored analysis. AnalysisJSON is the full upstream record
// with the derived card embedded under viral_card.
type Analysis struct {
	ID           string
	Tier         string
	AnalysisJSON string
	CreatedAt    *string
}

// SavedReply is a reply suggestion the user starred.
type SavedReply struct {
	ID         int64
	AnalysisID *string
	ReplyText  string
	ReplyType  *string
	CreatedAt  *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Analyses     int
	SavedReplies int
	ByTier       map[string]int
}

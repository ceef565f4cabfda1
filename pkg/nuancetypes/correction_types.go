package nuancetypes

// TranscriptEntry is one line of a caller-supplied conversation transcript.
// Type is "ai" for assistant lines and "user" for user lines.
type TranscriptEntry struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Time string `json:"time,omitempty"`
}

// CorrectionItem is a single validated writing correction.
type CorrectionItem struct {
	Category    string `json:"type"`
	Original    string `json:"original"`
	Suggestion  string `json:"suggestion"`
	Explanation string `json:"explanation"`
}

// CorrectionResult is the validated output of a writing analysis.
type CorrectionResult struct {
	Items        []CorrectionItem `json:"corrections"`
	TotalCount   int              `json:"total_errors"`
	SourceLength int              `json:"conversation_length"`
}

// Article is the outcome of polishing a transcript into prose.
type Article struct {
	Status    string `json:"status"`
	Article   string `json:"article,omitempty"`
	WordCount int    `json:"word_count"`
	Error     string `json:"error,omitempty"`
}

// Article statuses.
const (
	ArticleSuccess = "success"
	ArticleError   = "error"
)

package models

// CaseLawResult is a single external case-law hit
type CaseLawResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// GenerationRequest carries the inputs of a drafting request.
// Optional fields use the empty string for "absent".
type GenerationRequest struct {
	BriefType       string   `json:"brief_type"`
	Facts           string   `json:"facts"`
	RequestedRelief string   `json:"requested_relief"`
	Documents       []string `json:"documents"`
	ClientID        string   `json:"client_id,omitempty"`
	CaseID          string   `json:"case_id,omitempty"`
	Area            string   `json:"area,omitempty"`
}

// RAGContext is the request plus everything retrieved for it
type RAGContext struct {
	GenerationRequest
	Similar map[Category][]RetrievalResult
	CaseLaw []CaseLawResult
}

// GeneratedArtifact is the output of a drafting or refinement request
type GeneratedArtifact struct {
	Text       string `json:"text"`
	FileHandle string `json:"file_handle"`
}

package request

type AnalyzeRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"`
}

type OpenSessionRequest struct {
	URL string `json:"url"`
}

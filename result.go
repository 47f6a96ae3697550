package docindex

// Result is the outcome of one sync run.
type Result struct {
	Success             bool     `json:"success"`
	NewRecordsCount     int      `json:"newRecordsCount"`
	DeletedRecordsCount int      `json:"deletedRecordsCount"`
	TotalRecordsCount   int      `json:"totalRecordsCount"`
	PagesCrawled        int      `json:"pagesCrawled"`
	SkippedPages        []string `json:"skippedPages,omitempty"`
	DryRun              bool     `json:"dryRun,omitempty"`
	RunID               string   `json:"runId"`
	Error               string   `json:"error,omitempty"`
}

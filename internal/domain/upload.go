package domain

// UploadResult is the outcome of uploading a single file, regardless of
// whether object storage or the backend's own uploadMedia action produced it.
type UploadResult struct {
	URL string `json:"url"`
}

// UploadSummary reports the outcome of a multi-file upload. A failed file
// does not abort the remaining uploads, so callers need counts, not a single
// pass/fail.
type UploadSummary struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	URLs      []string `json:"urls"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Partial reports whether at least one file failed while others succeeded.
func (s UploadSummary) Partial() bool {
	return s.Succeeded > 0 && s.Succeeded < s.Attempted
}

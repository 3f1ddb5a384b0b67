package api

// JobState is the lifecycle state the server reports for a download job.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
)

// IsTerminal returns true if the server will never report a later state.
func (s JobState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// JobStatus is one status snapshot for a job.
type JobStatus struct {
	Status   JobState   `json:"status"`
	Progress string     `json:"progress,omitempty"`
	Result   *JobResult `json:"result,omitempty"`
}

// JobResult carries the terminal payload of a job.
type JobResult struct {
	MediaURLs []string `json:"media_urls,omitempty"`
	Error     string   `json:"error,omitempty"`
}

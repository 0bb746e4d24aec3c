package schemas

// -- HTTP API Schemas --

// RunRequest is the body of POST /api/run.
type RunRequest struct {
	Task     string `json:"task" binding:"required"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// RunResponse mirrors AgentResult for HTTP callers. Success=false with
// Error="max_steps_exceeded" distinguishes a budget cutoff from an answer;
// provider failures never reach this shape (they map to a 5xx).
type RunResponse struct {
	RunID   string `json:"run_id,omitempty"`
	Result  string `json:"result"`
	Steps   []Step `json:"steps"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

package dto

// Envelope status values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Response is the envelope of every JSON answer. A success carries data, a
// failure carries message.
type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

// NewFailureResponse creates a failure response
func NewFailureResponse(message string) Response {
	return Response{
		Status:  StatusFailure,
		Message: message,
	}
}

// GenerateAPIKeyRequest is the body of POST /admin/apikey/generate
type GenerateAPIKeyRequest struct {
	ScopeID string `json:"scope_id" binding:"required,max=64"`
}

// GenerateAPIKeyResponse carries a freshly generated scope token
type GenerateAPIKeyResponse struct {
	Key string `json:"key"`
}

// LiveResponse is returned by the liveness probe
type LiveResponse struct {
	Status string `json:"status"`
}

// VersionInfo names a component and its version
type VersionInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Edition string `json:"edition,omitempty"`
}

// VersionResponse is returned by GET /diagnostics/version
type VersionResponse struct {
	Platform VersionInfo `json:"platform"`
	Module   VersionInfo `json:"module"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

package handlers

const (
	errUnauthorized = "Unauthorized"
	errCardNotFound = "Saved card not found"

	// reported by /api/metrics
	apiVersion = "1.0.0"
)

package dto

// ShareRequest issues a time-limited unauthenticated link for a
// document.
type ShareRequest struct {
	TTLMinutes *int `json:"ttlMinutes,omitempty" binding:"omitempty,min=1,max=10080"`
}

// ShareResponse returns the signed token and its absolute expiry.
type ShareResponse struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

package dto

// AdminLoginRequest back-office login
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse issued token
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// LeadListQuery GET /admin/leads
type LeadListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LeadItem lead row in the admin listing
type LeadItem struct {
	LeadID       string `json:"lead_id"`
	SessionID    string `json:"session_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Company      string `json:"company,omitempty"`
	Phone        string `json:"phone,omitempty"`
	OverallScore int    `json:"overall_score"`
	CreatedAt    string `json:"created_at"`
}

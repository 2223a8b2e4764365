package dto

// LoginRequest is the request body for staff login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expires_at"` // Unix timestamp
	Staff     StaffResponse `json:"user"`
}

// StaffResponse is the staff profile shape returned to the dashboard.
type StaffResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// RefundCreateRequest is the request body for opening a refund.
type RefundCreateRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,max=64,safe_id"`
	UserID        string `json:"user_id" binding:"omitempty,max=64,safe_id"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Reason        string `json:"reason" binding:"required,max=500"`
}

// RefundDecisionRequest is the request body for deciding a pending refund.
type RefundDecisionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

// RefundResponse is the response shape for a refund.
type RefundResponse struct {
	ID            string  `json:"refund_id"`
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	Amount        int64   `json:"amount"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	ProcessedBy   *string `json:"processed_by,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

// NotificationSendRequest is the request body for sending a user notification.
type NotificationSendRequest struct {
	UserID  string `json:"user_id" binding:"required,max=64,safe_id"`
	Title   string `json:"title" binding:"required,max=120"`
	Message string `json:"message" binding:"required,max=1000"`
	Channel string `json:"notification_type" binding:"required,oneof=email sms push in_app"`
}

// NotificationResponse is the response shape for a notification.
type NotificationResponse struct {
	ID      string  `json:"notification_id"`
	UserID  string  `json:"user_id"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Channel string  `json:"notification_type"`
	Status  string  `json:"status"`
	SentAt  *string `json:"sent_at,omitempty"`
}

// TransactionResponse is the response shape for a ledger entry.
type TransactionResponse struct {
	ID           string  `json:"transaction_id"`
	SenderID     string  `json:"sender_id"`
	ReceiverID   *string `json:"receiver_id,omitempty"`
	SenderName   string  `json:"sender_name"`
	ReceiverName string  `json:"receiver_name"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	Fees         int64   `json:"fees"`
	Description  string  `json:"description,omitempty"`
	Status       string  `json:"status"`
	Type         string  `json:"transaction_type"`
	CreatedAt    string  `json:"created_at"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

// UserResponse is the response shape for an app user.
type UserResponse struct {
	ID                 string  `json:"user_id"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Country            string  `json:"country"`
	VerificationStatus string  `json:"verification_status"`
	Balance            int64   `json:"balance"`
	Active             bool    `json:"is_active"`
	CreatedAt          string  `json:"created_at"`
	LastLogin          *string `json:"last_login,omitempty"`
}

// AuditLogResponse is the response shape for an audit entry.
type AuditLogResponse struct {
	ID           string  `json:"id"`
	StaffID      *string `json:"staff_id,omitempty"`
	Action       string  `json:"action"`
	ResourceType string  `json:"resource_type"`
	ResourceID   string  `json:"resource_id,omitempty"`
	IPAddress    string  `json:"ip_address"`
	Details      string  `json:"details,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// ListResponse wraps a paginated collection.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewListResponse assembles the pagination envelope.
func NewListResponse[T any](items []T, total int64, page, pageSize int) ListResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// DashboardStatsResponse is the response for dashboard statistics.
type DashboardStatsResponse struct {
	Users        UserStatsResponse        `json:"users"`
	Transactions TransactionStatsResponse `json:"transactions"`
	Refunds      RefundStatsResponse      `json:"refunds"`
	Currency     string                   `json:"currency"`
}

// UserStatsResponse holds the user counters on the dashboard.
type UserStatsResponse struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Verified int64 `json:"verified"`
	Recent   int64 `json:"recent"`
}

// TransactionStatsResponse holds the transaction counters on the dashboard.
type TransactionStatsResponse struct {
	Total       int64 `json:"total"`
	Completed   int64 `json:"completed"`
	Pending     int64 `json:"pending"`
	Failed      int64 `json:"failed"`
	Refunded    int64 `json:"refunded"`
	Recent      int64 `json:"recent"`
	TotalVolume int64 `json:"total_volume"`
	TotalFees   int64 `json:"total_fees"`
}

// RefundStatsResponse holds the refund counters on the dashboard.
type RefundStatsResponse struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
}

// ChartPointResponse is one day of chart data.
type ChartPointResponse struct {
	Date         string `json:"date"` // YYYY-MM-DD
	Transactions int64  `json:"transactions"`
	Volume       int64  `json:"volume"`
}

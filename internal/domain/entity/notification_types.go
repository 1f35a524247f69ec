package entity

// Notification is the payload delivered to a host notification URL.
type Notification struct {
	ID        string `json:"notificationId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	TargetURL string `json:"targetUrl"`
}

// DispatchResult sorts the tokens of one delivery by outcome.
type DispatchResult struct {
	SuccessfulTokens  []string `json:"successfulTokens"`
	InvalidTokens     []string `json:"invalidTokens"`
	RateLimitedTokens []string `json:"rateLimitedTokens"`
}

// SendNotificationRequest is the body accepted by the send-notification endpoint.
type SendNotificationRequest struct {
	FID                 int64                `json:"fid"`
	NotificationDetails *NotificationDetails `json:"notificationDetails"`
}

package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeCartNudge      NotificationType = "cart_nudge"
	NotificationTypeBrowseNudge    NotificationType = "browse_nudge"
	NotificationTypeQuoteExpiring  NotificationType = "quote_expiring"
	NotificationTypeQuoteExpired   NotificationType = "quote_expired"
	NotificationTypeQuoteIssued    NotificationType = "quote_issued"
	NotificationTypeOrderConfirmed NotificationType = "order_confirmed"
	NotificationTypeOrderFulfilled NotificationType = "order_fulfilled"
	NotificationTypePaymentFailed  NotificationType = "payment_failed"
	NotificationTypeSystemAnnounce NotificationType = "system_announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeCartNudge,
	NotificationTypeBrowseNudge,
	NotificationTypeQuoteExpiring,
	NotificationTypeQuoteExpired,
	NotificationTypeQuoteIssued,
	NotificationTypeOrderConfirmed,
	NotificationTypeOrderFulfilled,
	NotificationTypePaymentFailed,
	NotificationTypeSystemAnnounce,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

package models

import "time"

// MatchType records which transaction a notification was generated for
type MatchType string

const (
	MatchTypeRent MatchType = "RENT"
	MatchTypeSale MatchType = "SALE"
)

// LeadNotification is created for self-matches (lead and property share an
// owner). Append-only; the engine never updates or deletes these rows.
type LeadNotification struct {
	ID          string    `json:"id" db:"id"`
	LeadID      string    `json:"lead_id" db:"lead_id"`
	PropertyID  string    `json:"property_id" db:"property_id"`
	Title       string    `json:"title" db:"title"`
	Message     string    `json:"message" db:"message"`
	Sent        bool      `json:"sent" db:"sent"`
	DedupBucket time.Time `json:"-" db:"dedup_bucket"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PartnershipNotification is created for cross-user matches on a
// partnership-enabled property. Display fields are denormalized at creation
// time so the notification stays readable if the source lead or property
// later changes.
type PartnershipNotification struct {
	ID               string    `json:"id" db:"id"`
	FromUserID       string    `json:"from_user_id" db:"from_user_id"`
	ToUserID         string    `json:"to_user_id" db:"to_user_id"`
	LeadID           string    `json:"lead_id" db:"lead_id"`
	PropertyID       string    `json:"property_id" db:"property_id"`
	FromUserName     string    `json:"from_user_name" db:"from_user_name"`
	FromUserPhone    *string   `json:"from_user_phone,omitempty" db:"from_user_phone"`
	FromUserEmail    *string   `json:"from_user_email,omitempty" db:"from_user_email"`
	LeadName         string    `json:"lead_name" db:"lead_name"`
	PropertyTitle    string    `json:"property_title" db:"property_title"`
	TargetPriceCents *int64    `json:"target_price_cents,omitempty" db:"target_price_cents"`
	MatchType        MatchType `json:"match_type" db:"match_type"`
	Sent             bool      `json:"sent" db:"sent"`
	DedupBucket      time.Time `json:"-" db:"dedup_bucket"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// NotificationFeedResponse is a user's combined notification feed
type NotificationFeedResponse struct {
	LeadNotifications        []LeadNotification        `json:"lead_notifications"`
	PartnershipNotifications []PartnershipNotification `json:"partnership_notifications"`
}

// UnseenCountResponse reports how many notifications have not been sent yet
type UnseenCountResponse struct {
	LeadNotifications        int `json:"lead_notifications"`
	PartnershipNotifications int `json:"partnership_notifications"`
	Total                    int `json:"total"`
}

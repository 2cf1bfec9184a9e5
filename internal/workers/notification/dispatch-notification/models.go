// internal/workers/notification/dispatch-notification/models.go
package dispatchnotification

import "bus-tracking-services/internal/models"

type Input = models.InboundEvent

type Output struct {
	DispatchID         string `json:"dispatchId"`
	Outcome            string `json:"outcome"`
	RecipientID        string `json:"recipientId,omitempty"`
	NotificationTypeID int64  `json:"notificationTypeId,omitempty"`
	Message            string `json:"message,omitempty"`
}

// Outcomes
const (
	OutcomeSent      = "sent"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeDropped   = "dropped"
	OutcomeDuplicate = "duplicate"
)

const TypeETAUpdate = "eta_update"

// Message templates
const (
	etaTitle        = "Bus Arrival Update"
	etaBodyFormat   = "Your child's bus will arrive in approximately %s minutes."
	defaultETA      = "10"
	defaultTitle    = "Bus Alert"
	defaultBody     = "You have received a notification."
	noTokenMessage  = "No device token found"
	tokenErrMessage = "Failed to retrieve device token"
)

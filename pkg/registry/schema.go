// pkg/registry/schema.go
package registry

// NotificationTypeRegistry is the on-disk catalogue of notification types seeded into the database.
type NotificationTypeRegistry struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Types       []NotificationType `json:"types"`
}

type NotificationType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// Active defaults to true when the entry omits isActive.
func (t NotificationType) Active() bool {
	return t.IsActive == nil || *t.IsActive
}

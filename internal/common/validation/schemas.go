package validation

// InboundEventSchema describes a notification event on the stream. Only the recipient
// identifiers are constrained; other fields are coerced when the event is decoded.
const InboundEventSchema = `{
  "type": "object",
  "properties": {
    "user_id":    {"type": ["string", "number", "null"]},
    "student_id": {"type": ["string", "number", "null"]},
    "parent_id":  {"type": ["string", "number", "null"]}
  },
  "additionalProperties": true
}`

const NotificationTypeCreateSchema = `{
  "type": "object",
  "properties": {
    "name":        {"type": "string", "minLength": 1, "maxLength": 100},
    "description": {"type": ["string", "null"]},
    "is_active":   {"type": ["boolean", "null"]}
  },
  "required": ["name"]
}`

const NotificationTypeUpdateSchema = `{
  "type": "object",
  "properties": {
    "name":        {"type": ["string", "null"], "minLength": 1, "maxLength": 100},
    "description": {"type": ["string", "null"]},
    "is_active":   {"type": ["boolean", "null"]}
  }
}`

const SubscriptionRequestSchema = `{
  "type": "object",
  "properties": {
    "user_id":              {"type": ["string", "integer"], "minLength": 1},
    "notification_type_id": {"type": "integer", "minimum": 1}
  },
  "required": ["user_id", "notification_type_id"]
}`

const SendNotificationSchema = `{
  "type": "object",
  "properties": {
    "user_ids": {
      "type": "array",
      "items": {"type": ["string", "integer"]}
    },
    "notification_type_id": {"type": "integer", "minimum": 1},
    "title": {"type": "string"},
    "body":  {"type": "string"}
  },
  "required": ["user_ids", "notification_type_id", "title", "body"]
}`

const LocationCreateSchema = `{
  "type": "object",
  "properties": {
    "latitude":  {"type": "number", "minimum": -90, "maximum": 90},
    "longitude": {"type": "number", "minimum": -180, "maximum": 180}
  },
  "required": ["latitude", "longitude"]
}`

var (
	InboundEvent           = MustValidator(InboundEventSchema)
	NotificationTypeCreate = MustValidator(NotificationTypeCreateSchema)
	NotificationTypeUpdate = MustValidator(NotificationTypeUpdateSchema)
	SubscriptionRequest    = MustValidator(SubscriptionRequestSchema)
	SendNotification       = MustValidator(SendNotificationSchema)
	LocationCreate         = MustValidator(LocationCreateSchema)
)

package dynamo

// Attribute names of the users table.
const (
	fieldUserID       = "user_id"
	fieldEmail        = "email"
	fieldPhone        = "phone"
	fieldPasswordHash = "password_hash"
	fieldUpdatedAt    = "updated_at"
)

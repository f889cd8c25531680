package entity

// UserRef is the only slice of an account the engine sees; accounts,
// auth and profiles live in another service.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

package models

// ErrorResponse is written for every failed request.
// Code is stable and machine-readable; Message is safe to show to users.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UsersResponse wraps a list of users.
type UsersResponse struct {
	Users  []User `json:"users"`
	Length int    `json:"length"`
}

// SessionsResponse lists the live session ids of a user.
type SessionsResponse struct {
	SessionIDs []string `json:"session_ids"`
}

// DepartmentsResponse carries department rows as returned by the store.
type DepartmentsResponse struct {
	Departments []map[string]any `json:"departments"`
}

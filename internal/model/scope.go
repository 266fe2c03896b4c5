package model

// Scope identifies who a request is acting for. It travels from the delivery
// layer down through use cases.
type Scope struct {
	ChatID   int64
	UserID   int64
	Username string
}

package monday

// Member is a user with access to a board, either as owner or subscriber.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Column describes a board column. SettingsStr carries column-type specific
// configuration as a JSON string, notably the linked board of a subitems
// column.
type Column struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str"`
}

// Item is a board item (a parent row or a subitem).
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

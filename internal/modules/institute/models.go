package institute

// Institute groups fund managers under one organization.
type Institute struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

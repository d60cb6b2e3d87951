package manager

// FundManager links a user account to an institute. Portfolios belong to a
// fund manager, and all ownership checks resolve through this link.
type FundManager struct {
	ID          int64 `json:"id"`
	UserID      int64 `json:"user"`
	InstituteID int64 `json:"institute"`
}

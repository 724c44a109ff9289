package domain

type RefundRequestStatus string

const (
	RefundRequestPending  RefundRequestStatus = "PENDING"
	RefundRequestApproved RefundRequestStatus = "APPROVED"
	RefundRequestRejected RefundRequestStatus = "REJECTED"
)

// RefundRequest is a buyer's ask for a refund, decided by an admin.
type RefundRequest struct {
	ID        string              `db:"id" json:"id"`
	OrderID   string              `db:"order_id" json:"orderId"`
	UserID    string              `db:"user_id" json:"userId"`
	Reason    string              `db:"reason" json:"reason"`
	Status    RefundRequestStatus `db:"status" json:"status"`
	AdminNote string              `db:"admin_note" json:"adminNote,omitempty"`
	CreatedAt string              `db:"created_at" json:"createdAt"`
	UpdatedAt string              `db:"updated_at" json:"updatedAt"`
}

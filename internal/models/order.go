package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/Bessima/fieldops/internal/customerror"

	"github.com/google/uuid"
)

type WorkOrder struct {
	ID               uuid.UUID   `json:"id"`
	OrderNo          string      `json:"order_no"`
	Status           OrderStatus `json:"status"`
	ServiceDate      *time.Time  `json:"service_date"`
	Location         string      `json:"location,omitempty"`
	Technician       string      `json:"technician,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	CompletionStatus string      `json:"completion_status,omitempty"`
	Source           OrderSource `json:"source"`
	ReviewedBy       *string     `json:"reviewed_by,omitempty"`
	ReviewNote       *string     `json:"review_note,omitempty"`
	ImportedAt       time.Time   `json:"imported_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type OrderStatus string

const (
	PendingReviewStatus   OrderStatus = "pending_review"
	ImportedStatus        OrderStatus = "imported"
	ApprovedStatus        OrderStatus = "approved"
	FlaggedStatus         OrderStatus = "flagged"
	FlaggedFollowupStatus OrderStatus = "flagged_followup"
	ResolvedStatus        OrderStatus = "resolved"
	RejectedStatus        OrderStatus = "rejected"
)

// StatusCounts пересчитывается на каждый запрос и не хранится.
type StatusCounts struct {
	Approved      int `json:"approved"`
	PendingReview int `json:"pending_review"`
	Flagged       int `json:"flagged"`
	Resolved      int `json:"resolved"`
	Rejected      int `json:"rejected"`
	All           int `json:"all"`
}

// StatusChange is one review decision recorded for an order.
type StatusChange struct {
	OrderNo   string      `json:"order_no"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Actor     string      `json:"actor"`
	Note      *string     `json:"note,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderFilter ограничивает выборку заказов. To не включается в диапазон.
type OrderFilter struct {
	From   *time.Time
	To     *time.Time
	Status *OrderStatus
}

type ReviewAction string

const (
	ApproveAction ReviewAction = "approve"
	FlagAction    ReviewAction = "flag"
	RejectAction  ReviewAction = "reject"
	ResolveAction ReviewAction = "resolve"
)

// ParseReviewAction принимает имя действия из URL без учёта регистра.
func ParseReviewAction(name string) (ReviewAction, error) {
	action := ReviewAction(strings.ToLower(strings.TrimSpace(name)))
	switch action {
	case ApproveAction, FlagAction, RejectAction, ResolveAction:
		return action, nil
	}
	return "", customerror.NewValidationError(fmt.Sprintf("unknown review action %q", name))
}

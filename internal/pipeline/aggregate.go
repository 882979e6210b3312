package pipeline

import "github.com/Bessima/fieldops/internal/models"

// Aggregate counts orders per status bucket. imported is reported as
// pending_review and flagged_followup as flagged; unknown statuses only
// contribute to All.
func Aggregate(orders []models.WorkOrder) models.StatusCounts {
	counts := models.StatusCounts{All: len(orders)}
	for _, order := range orders {
		switch order.Status {
		case models.ApprovedStatus:
			counts.Approved++
		case models.PendingReviewStatus, models.ImportedStatus:
			counts.PendingReview++
		case models.FlaggedStatus, models.FlaggedFollowupStatus:
			counts.Flagged++
		case models.ResolvedStatus:
			counts.Resolved++
		case models.RejectedStatus:
			counts.Rejected++
		}
	}
	return counts
}

// TransformAll applies Transform to every order, preserving order.
func TransformAll(orders []models.RawOrder) []models.WorkOrder {
	result := make([]models.WorkOrder, 0, len(orders))
	for _, raw := range orders {
		result = append(result, Transform(raw))
	}
	return result
}

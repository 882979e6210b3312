package pipeline

import "github.com/Bessima/fieldops/internal/models"

// keyPaths are probed in this exact order; the first non-empty value wins.
var keyPaths = []string{
	"data.orderNo",
	"orderNo",
	"completionDetails.orderNo",
	"extracted.orderNo",
}

// ExtractKey returns the order number of raw, or false if none of the known
// locations carries one.
func ExtractKey(raw models.RawOrder) (models.OrderKey, bool) {
	key := firstString(raw.Doc, keyPaths...)
	if key == "" {
		return "", false
	}
	return models.OrderKey(key), true
}

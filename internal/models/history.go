package models

import "time"

// HistoryStatus запись журнала изменения статусов
type HistoryStatus struct {
	RelatedID   string    `bson:"related_id" json:"related_id"`
	RelatedType string    `bson:"related_type" json:"related_type"` // listing, bid, trade
	ListingID   string    `bson:"listing_id" json:"listing_id"`
	OldStatus   string    `bson:"old_status" json:"old_status"`
	NewStatus   string    `bson:"new_status" json:"new_status"`
	ChangedBy   string    `bson:"changed_by" json:"changed_by"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	Note        string    `bson:"note,omitempty" json:"note,omitempty"`
}

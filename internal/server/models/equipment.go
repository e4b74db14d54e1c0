package models

import "time"

// EquipmentItem is one piece of gear tracked by the user: whether they own it
// and an optional shop link. ShopURL is nil when no link is stored.
type EquipmentItem struct {
	EquipmentID string
	Owned       bool
	ShopURL     *string
	UpdatedAt   time.Time
}

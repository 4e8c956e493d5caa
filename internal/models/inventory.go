package models

import "time"

// Tool condition values.
const (
	ToolConditionGood        = "Good"
	ToolConditionFair        = "Fair"
	ToolConditionDefective   = "Defective"
	ToolConditionMaintenance = "Under Maintenance"
)

// ToolItem is a discrete lab asset. Quantity is always one; only
// condition and borrower are mutable.
type ToolItem struct {
	ID           string     `db:"id" json:"id"`
	LabID        string     `db:"lab_id" json:"labId"`
	Name         string     `db:"name" json:"name"`
	SerialNumber string     `db:"serial_number" json:"serialNumber"`
	Condition    string     `db:"condition" json:"condition"`
	Borrower     *string    `db:"borrower" json:"borrower"`
	LastBorrowed *time.Time `db:"last_borrowed" json:"lastBorrowed"`
}

// LabConsumable is a counted lab supply. Quantity is clamped to zero or
// above on every update.
type LabConsumable struct {
	ID         string     `db:"id" json:"id"`
	LabID      string     `db:"lab_id" json:"labId"`
	Name       string     `db:"name" json:"name"`
	Quantity   int        `db:"quantity" json:"quantity"`
	Unit       string     `db:"unit" json:"unit"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate"`
	Location   string     `db:"location" json:"location"`
}

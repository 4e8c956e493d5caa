package models

// Laboratory condition values.
const (
	LabConditionFunctional  = "Functional"
	LabConditionMaintenance = "Maintenance"
	LabConditionClosed      = "Closed"
)

// Laboratory status values.
const (
	LabStatusAvailable = "Available"
	LabStatusOccupied  = "Occupied"
	LabStatusReserved  = "Reserved"
)

// Laboratory is a physical lab room owning tools and consumables by
// foreign key.
type Laboratory struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Building  string `db:"building" json:"building"`
	Floor     string `db:"floor" json:"floor"`
	Condition string `db:"condition" json:"condition"`
	Status    string `db:"status" json:"status"`
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents a faculty personnel record. Records are created and
// deleted whole; there is no field-level update operation.
type Teacher struct {
	ID                   string         `db:"id" json:"id"`
	FirstName            string         `db:"first_name" json:"firstName"`
	MiddleName           string         `db:"middle_name" json:"middleName"`
	LastName             string         `db:"last_name" json:"lastName"`
	Suffix               *string        `db:"suffix" json:"suffix,omitempty"`
	EmpNo                string         `db:"emp_no" json:"empNo"`
	Contact              string         `db:"contact" json:"contact"`
	Address              string         `db:"address" json:"address"`
	DOB                  time.Time      `db:"dob" json:"dob"`
	SubjectTaught        string         `db:"subject_taught" json:"subjectTaught"`
	YearsTeachingSubject int            `db:"years_teaching_subject" json:"yearsTeachingSubject"`
	TesdaQualifications  pq.StringArray `db:"tesda_qualifications" json:"tesdaQualifications"`
	Position             string         `db:"position" json:"position"`
	EducationBS          string         `db:"education_bs" json:"educationBS"`
	EducationMA          *string        `db:"education_ma" json:"educationMA,omitempty"`
	EducationPhD         *string        `db:"education_phd" json:"educationPhD,omitempty"`
	YearsInService       int            `db:"years_in_service" json:"yearsInService"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
}

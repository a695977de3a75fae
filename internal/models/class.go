package models

import "time"

// ClassDivision groups classes by school stage.
type ClassDivision string

const (
	DivisionPreSchool     ClassDivision = "Pre-School"
	DivisionPrimary       ClassDivision = "Primary (1-5)"
	DivisionMiddle        ClassDivision = "Middle (6-10)"
	DivisionMiddleGeneral ClassDivision = "Middle (6-10 General)"
	DivisionSecondary     ClassDivision = "Secondary (11-12)"
)

// Valid returns true when the division is a supported value.
func (d ClassDivision) Valid() bool {
	switch d {
	case DivisionPreSchool, DivisionPrimary, DivisionMiddle, DivisionMiddleGeneral, DivisionSecondary:
		return true
	default:
		return false
	}
}

// ClassDepartment is the optional stream a class belongs to.
type ClassDepartment string

const (
	DepartmentGeneral  ClassDepartment = "General"
	DepartmentStar     ClassDepartment = "Star"
	DepartmentScience  ClassDepartment = "Science"
	DepartmentCommerce ClassDepartment = "Commerce"
	DepartmentArts     ClassDepartment = "Arts"
)

// Valid returns true when the department is a supported value.
func (d ClassDepartment) Valid() bool {
	switch d {
	case DepartmentGeneral, DepartmentStar, DepartmentScience, DepartmentCommerce, DepartmentArts:
		return true
	default:
		return false
	}
}

// Class is the reference record for a school class. Attendance refers to it only by ID.
type Class struct {
	ID            string           `db:"id" json:"id"`
	Name          string           `db:"name" json:"name"`
	Division      ClassDivision    `db:"division" json:"division"`
	Department    *ClassDepartment `db:"department" json:"department"`
	TotalStudents int              `db:"total_students" json:"totalStudents"`
	TeacherName   string           `db:"teacher_name" json:"teacherName"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Division ClassDivision
}

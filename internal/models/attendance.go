package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
)

// Attendance is one class's attendance tally for one calendar day.
type Attendance struct {
	ID                   string      `db:"id" json:"id"`
	Date                 time.Time   `db:"date" json:"date"`
	ClassID              string      `db:"class_id" json:"classId"`
	TotalStudents        int         `db:"total_students" json:"totalStudents"`
	PresentStudents      int         `db:"present_students" json:"presentStudents"`
	AbsentStudents       int         `db:"absent_students" json:"absentStudents"`
	AbsentRollNumbers    RollNumbers `db:"absent_roll_numbers" json:"absentRollNumbers"`
	AttendancePercentage float64     `db:"attendance_percentage" json:"attendancePercentage"`
	TeacherName          string      `db:"teacher_name" json:"teacherName"`
	CreatedAt            time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updatedAt"`
}

// Clone returns a deep copy of the record.
func (a Attendance) Clone() Attendance {
	out := a
	out.AbsentRollNumbers = a.AbsentRollNumbers.Clone()
	return out
}

// RollNumbers is the set of absent students' roll numbers, stored as INTEGER[].
type RollNumbers []int64

// Normalize sorts the roll numbers and drops duplicates. A nil set becomes empty.
func (r RollNumbers) Normalize() RollNumbers {
	out := make(RollNumbers, 0, len(r))
	seen := make(map[int64]struct{}, len(r))
	for _, n := range r {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone copies the underlying slice.
func (r RollNumbers) Clone() RollNumbers {
	out := make(RollNumbers, len(r))
	copy(out, r)
	return out
}

// Value implements driver.Valuer.
func (r RollNumbers) Value() (driver.Value, error) {
	if r == nil {
		r = RollNumbers{}
	}
	return pq.Int64Array(r).Value()
}

// Scan implements sql.Scanner.
func (r *RollNumbers) Scan(src interface{}) error {
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan roll numbers: %w", err)
	}
	*r = RollNumbers(arr)
	if *r == nil {
		*r = RollNumbers{}
	}
	return nil
}

// AttendanceSort enumerates the orderings supported by attendance queries.
type AttendanceSort string

const (
	// SortDateDesc orders newest first, ties broken by creation time.
	SortDateDesc AttendanceSort = "date_desc"
	// SortClassAsc orders by class identifier.
	SortClassAsc AttendanceSort = "class_asc"
	// SortDateDescClassAsc orders newest first, ties broken by class identifier.
	SortDateDescClassAsc AttendanceSort = "date_desc_class_asc"
	// SortDateAscClassAsc orders oldest first, ties broken by class identifier.
	SortDateAscClassAsc AttendanceSort = "date_asc_class_asc"
)

// AttendanceFilter narrows attendance queries. DateFrom is inclusive, DateTo exclusive.
type AttendanceFilter struct {
	ClassID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     AttendanceSort
}

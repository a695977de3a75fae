package dto

// DashboardStatsResponse captures the aggregated attendance dashboard payload.
type DashboardStatsResponse struct {
	TotalStudents     int                `json:"totalStudents"`
	TotalClasses      int                `json:"totalClasses"`
	TodayPresent      int                `json:"todayPresent"`
	AverageAttendance float64            `json:"averageAttendance"`
	RecentAttendance  []RecentAttendance `json:"recentAttendance"`
}

// RecentAttendance is one point of the recent attendance trend.
type RecentAttendance struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

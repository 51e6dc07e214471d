package models

import "time"

// ThreatDetection is a camera/AI detection event attached to a driver
type ThreatDetection struct {
	ID              int64       `json:"id" db:"id"`
	DriverID        int64       `json:"driver_id" db:"driver_id"`
	RouteID         NullInt64   `json:"route_id,omitempty" db:"route_id"`
	ThreatType      string      `json:"threat_type" db:"threat_type"`
	ConfidenceScore float64     `json:"confidence_score" db:"confidence_score"`
	ConfirmedThreat bool        `json:"confirmed_threat" db:"confirmed_threat"`
	ManualReview    NullString  `json:"manual_review,omitempty" db:"manual_review"`
	Latitude        NullFloat64 `json:"latitude,omitempty" db:"latitude"`
	Longitude       NullFloat64 `json:"longitude,omitempty" db:"longitude"`
	DetectedAt      time.Time   `json:"detected_at" db:"detected_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// CameraRecording references stored dashcam footage, optionally linked to a threat
type CameraRecording struct {
	ID         int64     `json:"id" db:"id"`
	DriverID   int64     `json:"driver_id" db:"driver_id"`
	RouteID    NullInt64 `json:"route_id,omitempty" db:"route_id"`
	ThreatID   NullInt64 `json:"threat_id,omitempty" db:"threat_id"`
	FilePath   string    `json:"file_path" db:"file_path"`
	FileSizeMB float64   `json:"file_size_mb" db:"file_size_mb"`
	Camera     string    `json:"camera" db:"camera"`
	Quality    string    `json:"quality" db:"quality"`
	IsEvidence bool      `json:"is_evidence" db:"is_evidence"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SafetyScore is a periodic per-driver safety rating
type SafetyScore struct {
	ID                   int64     `json:"id" db:"id"`
	DriverID             int64     `json:"driver_id" db:"driver_id"`
	CalculatedDate       time.Time `json:"calculated_date" db:"calculated_date"`
	OverallScore         int       `json:"overall_score" db:"overall_score"`
	IncidentScore        int       `json:"incident_score" db:"incident_score"`
	RouteCompletionScore float64   `json:"route_completion_score" db:"route_completion_score"`
	TotalIncidents       int       `json:"total_incidents" db:"total_incidents"`
	TotalRoutes          int       `json:"total_routes" db:"total_routes"`
	CompletedRoutes      int       `json:"completed_routes" db:"completed_routes"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// MonthlyReport is a per-company aggregate generated for a reporting month
type MonthlyReport struct {
	ID                 int64     `json:"id" db:"id"`
	CompanyID          NullInt64 `json:"company_id,omitempty" db:"company_id"`
	ReportDate         time.Time `json:"report_date" db:"report_date"`
	TotalRoutes        int       `json:"total_routes" db:"total_routes"`
	CompletedRoutes    int       `json:"completed_routes" db:"completed_routes"`
	TotalIncidents     int       `json:"total_incidents" db:"total_incidents"`
	ResolvedIncidents  int       `json:"resolved_incidents" db:"resolved_incidents"`
	TotalDistanceKm    float64   `json:"total_distance_km" db:"total_distance_km"`
	AverageSafetyScore int       `json:"average_safety_score" db:"average_safety_score"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// DriverSafetyDetail bundles a driver's latest score with recent detection
// events and evidence footage for the control-room driver view
type DriverSafetyDetail struct {
	DriverID           int64             `json:"driver_id"`
	Score              *SafetyScore      `json:"score,omitempty"`
	RecentThreats      []ThreatDetection `json:"recent_threats"`
	EvidenceRecordings []CameraRecording `json:"evidence_recordings"`
}

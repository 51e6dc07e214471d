package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// DashboardRepository aggregates figures for the control-room overview
type DashboardRepository struct {
	db DB
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db DB) *DashboardRepository {
	return &DashboardRepository{
		db: db,
	}
}

// GetSummary collects headline counts in one round trip
func (r *DashboardRepository) GetSummary() (*models.DashboardSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM panic_alerts WHERE status IN ('Active', 'Acknowledged')) AS active_alerts,
			(SELECT COUNT(*) FROM routes WHERE status = 'InProgress') AS routes_in_progress,
			(SELECT COUNT(*) FROM incidents WHERE status IN ('Reported', 'UnderReview', 'Verified')) AS open_incidents,
			(SELECT COUNT(*) FROM incidents WHERE occurred_at >= CURRENT_DATE) AS incidents_today,
			(SELECT COUNT(*) FROM risk_zones WHERE is_active = true) AS active_risk_zones,
			(SELECT COUNT(*) FROM risk_zones WHERE is_active = true AND risk_level = 'Critical') AS critical_risk_zones,
			(SELECT COUNT(*) FROM drivers) AS drivers_registered,
			(SELECT COUNT(*) FROM dispatchers WHERE is_on_duty = true) AS on_duty_dispatchers
	`

	summary := &models.DashboardSummary{}
	if err := r.db.Get(summary, query); err != nil {
		return nil, fmt.Errorf("failed to get dashboard summary: %w", err)
	}
	return summary, nil
}

// GetLatestSafetyScore returns the most recent score on record for a driver,
// or nil when none has been calculated yet
func (r *DashboardRepository) GetLatestSafetyScore(driverID int64) (*models.SafetyScore, error) {
	query := `
		SELECT id, driver_id, calculated_date, overall_score, incident_score,
		       route_completion_score, total_incidents, total_routes,
		       completed_routes, created_at, updated_at
		FROM safety_scores
		WHERE driver_id = $1
		ORDER BY calculated_date DESC
		LIMIT 1
	`

	score := &models.SafetyScore{}
	if err := r.db.Get(score, query, driverID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get safety score: %w", err)
	}
	return score, nil
}

// RecalculateSafetyScore recomputes today's score for a driver from incident
// and route history and upserts the safety_scores row for the day. Scoring:
// start from 100, subtract 10 per incident on record (floored at 0), and blend
// with the route completion rate 70/30.
func (r *DashboardRepository) RecalculateSafetyScore(driverID int64) (*models.SafetyScore, error) {
	query := `
		WITH history AS (
			SELECT
				(SELECT COUNT(*) FROM incidents WHERE driver_id = $1) AS total_incidents,
				(SELECT COUNT(*) FROM routes WHERE driver_id = $1) AS total_routes,
				(SELECT COUNT(*) FROM routes WHERE driver_id = $1 AND status = 'Completed') AS completed_routes
		)
		INSERT INTO safety_scores (driver_id, calculated_date, overall_score, incident_score,
		                           route_completion_score, total_incidents, total_routes, completed_routes)
		SELECT
			$1,
			CURRENT_DATE,
			ROUND(GREATEST(0, 100 - total_incidents * 10) * 0.7 +
			      CASE WHEN total_routes > 0 THEN completed_routes * 100.0 / total_routes ELSE 100 END * 0.3),
			GREATEST(0, 100 - total_incidents * 10),
			CASE WHEN total_routes > 0 THEN completed_routes * 100.0 / total_routes ELSE 100 END,
			total_incidents,
			total_routes,
			completed_routes
		FROM history
		ON CONFLICT (driver_id, calculated_date) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			incident_score = EXCLUDED.incident_score,
			route_completion_score = EXCLUDED.route_completion_score,
			total_incidents = EXCLUDED.total_incidents,
			total_routes = EXCLUDED.total_routes,
			completed_routes = EXCLUDED.completed_routes,
			updated_at = NOW()
		RETURNING id, driver_id, calculated_date, overall_score, incident_score,
		          route_completion_score, total_incidents, total_routes,
		          completed_routes, created_at, updated_at
	`

	score := &models.SafetyScore{}
	if err := r.db.Get(score, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to recalculate safety score: %w", translateError(err))
	}
	return score, nil
}

// ListRecentThreats returns a driver's latest detection events, newest first
func (r *DashboardRepository) ListRecentThreats(driverID int64, limit int) ([]models.ThreatDetection, error) {
	query := `
		SELECT id, driver_id, route_id, threat_type, confidence_score, confirmed_threat,
		       manual_review, latitude, longitude, detected_at, created_at
		FROM threat_detections
		WHERE driver_id = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`

	threats := []models.ThreatDetection{}
	if err := r.db.Select(&threats, query, driverID, limit); err != nil {
		return nil, fmt.Errorf("failed to list threat detections: %w", err)
	}
	return threats, nil
}

// ListEvidenceRecordings returns a driver's evidence-flagged footage, newest first
func (r *DashboardRepository) ListEvidenceRecordings(driverID int64, limit int) ([]models.CameraRecording, error) {
	query := `
		SELECT id, driver_id, route_id, threat_id, file_path, file_size_mb,
		       camera, quality, is_evidence, recorded_at, created_at
		FROM camera_recordings
		WHERE driver_id = $1 AND is_evidence = true
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	recordings := []models.CameraRecording{}
	if err := r.db.Select(&recordings, query, driverID, limit); err != nil {
		return nil, fmt.Errorf("failed to list camera recordings: %w", err)
	}
	return recordings, nil
}

// GenerateMonthlyReport aggregates the month containing reportDate across the
// whole fleet and stores the result
func (r *DashboardRepository) GenerateMonthlyReport(reportDate time.Time) (*models.MonthlyReport, error) {
	query := `
		INSERT INTO monthly_reports (report_date, total_routes, completed_routes,
		                             total_incidents, resolved_incidents, total_distance_km,
		                             average_safety_score)
		SELECT
			date_trunc('month', $1::date)::date,
			(SELECT COUNT(*) FROM routes
			 WHERE date_trunc('month', created_at) = date_trunc('month', $1::date)),
			(SELECT COUNT(*) FROM routes
			 WHERE status = 'Completed'
			   AND date_trunc('month', created_at) = date_trunc('month', $1::date)),
			(SELECT COUNT(*) FROM incidents
			 WHERE date_trunc('month', occurred_at) = date_trunc('month', $1::date)),
			(SELECT COUNT(*) FROM incidents
			 WHERE status = 'Resolved'
			   AND date_trunc('month', occurred_at) = date_trunc('month', $1::date)),
			(SELECT COALESCE(SUM(COALESCE(actual_km, estimated_km)), 0) FROM routes
			 WHERE status = 'Completed'
			   AND date_trunc('month', created_at) = date_trunc('month', $1::date)),
			(SELECT COALESCE(ROUND(AVG(overall_score)), 0) FROM safety_scores
			 WHERE date_trunc('month', calculated_date) = date_trunc('month', $1::date))
		RETURNING id, company_id, report_date, total_routes, completed_routes,
		          total_incidents, resolved_incidents, total_distance_km,
		          average_safety_score, created_at
	`

	report := &models.MonthlyReport{}
	if err := r.db.Get(report, query, reportDate); err != nil {
		return nil, fmt.Errorf("failed to generate monthly report: %w", err)
	}
	return report, nil
}

// ListMonthlyReports returns stored reports, newest month first
func (r *DashboardRepository) ListMonthlyReports(limit int) ([]models.MonthlyReport, error) {
	query := `
		SELECT id, company_id, report_date, total_routes, completed_routes,
		       total_incidents, resolved_incidents, total_distance_km,
		       average_safety_score, created_at
		FROM monthly_reports
		ORDER BY report_date DESC, id DESC
		LIMIT $1
	`

	reports := []models.MonthlyReport{}
	if err := r.db.Select(&reports, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list monthly reports: %w", err)
	}
	return reports, nil
}

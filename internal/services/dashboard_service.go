package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
)

const (
	recentThreatsLimit      = 10
	evidenceRecordingsLimit = 10
	monthlyReportsLimit     = 24
)

type dashboardRepository interface {
	GetSummary() (*models.DashboardSummary, error)
	GetLatestSafetyScore(driverID int64) (*models.SafetyScore, error)
	RecalculateSafetyScore(driverID int64) (*models.SafetyScore, error)
	ListRecentThreats(driverID int64, limit int) ([]models.ThreatDetection, error)
	ListEvidenceRecordings(driverID int64, limit int) ([]models.CameraRecording, error)
	GenerateMonthlyReport(reportDate time.Time) (*models.MonthlyReport, error)
	ListMonthlyReports(limit int) ([]models.MonthlyReport, error)
}

type alertStatsGetter interface {
	GetStats() (*models.AlertStats, error)
}

// DashboardService assembles the control-room overview and safety analytics
type DashboardService struct {
	dashboard dashboardRepository
	alerts    alertStatsGetter
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(dashboard dashboardRepository, alerts alertStatsGetter) *DashboardService {
	return &DashboardService{
		dashboard: dashboard,
		alerts:    alerts,
	}
}

// GetSummary returns headline counts plus alert aggregates
func (s *DashboardService) GetSummary() (*models.DashboardSummary, error) {
	summary, err := s.dashboard.GetSummary()
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}

	stats, err := s.alerts.GetStats()
	if err != nil {
		return nil, fmt.Errorf("failed to load alert stats: %w", err)
	}
	summary.AlertStats = *stats

	return summary, nil
}

// GetDriverSafety returns a driver's latest score with recent detections and
// evidence footage. A driver with no score yet gets a nil score, not an error.
func (s *DashboardService) GetDriverSafety(driverID int64) (*models.DriverSafetyDetail, error) {
	score, err := s.dashboard.GetLatestSafetyScore(driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load safety score: %w", err)
	}

	threats, err := s.dashboard.ListRecentThreats(driverID, recentThreatsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load threat history: %w", err)
	}

	recordings, err := s.dashboard.ListEvidenceRecordings(driverID, evidenceRecordingsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence recordings: %w", err)
	}

	return &models.DriverSafetyDetail{
		DriverID:           driverID,
		Score:              score,
		RecentThreats:      threats,
		EvidenceRecordings: recordings,
	}, nil
}

// RecalculateDriverSafety recomputes today's score for a driver from incident
// and route history
func (s *DashboardService) RecalculateDriverSafety(driverID int64) (*models.SafetyScore, error) {
	score, err := s.dashboard.RecalculateSafetyScore(driverID)
	if err != nil {
		if errors.Is(err, database.ErrRestricted) {
			return nil, fmt.Errorf("driver %d: %w", driverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to recalculate safety score: %w", err)
	}
	return score, nil
}

// GenerateMonthlyReport aggregates the month containing reportDate and stores
// the result
func (s *DashboardService) GenerateMonthlyReport(reportDate time.Time) (*models.MonthlyReport, error) {
	report, err := s.dashboard.GenerateMonthlyReport(reportDate)
	if err != nil {
		return nil, fmt.Errorf("failed to generate monthly report: %w", err)
	}
	return report, nil
}

// ListMonthlyReports returns stored reports, newest month first
func (s *DashboardService) ListMonthlyReports() ([]models.MonthlyReport, error) {
	reports, err := s.dashboard.ListMonthlyReports(monthlyReportsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly reports: %w", err)
	}
	return reports, nil
}

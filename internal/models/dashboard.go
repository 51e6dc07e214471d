package models

// DashboardSummary is the control-room overview payload
type DashboardSummary struct {
	ActiveAlerts      int64      `json:"active_alerts" db:"active_alerts"`
	RoutesInProgress  int64      `json:"routes_in_progress" db:"routes_in_progress"`
	OpenIncidents     int64      `json:"open_incidents" db:"open_incidents"`
	IncidentsToday    int64      `json:"incidents_today" db:"incidents_today"`
	ActiveRiskZones   int64      `json:"active_risk_zones" db:"active_risk_zones"`
	CriticalRiskZones int64      `json:"critical_risk_zones" db:"critical_risk_zones"`
	DriversRegistered int64      `json:"drivers_registered" db:"drivers_registered"`
	OnDutyDispatchers int64      `json:"on_duty_dispatchers" db:"on_duty_dispatchers"`
	AlertStats        AlertStats `json:"alert_stats" db:"-"`
}

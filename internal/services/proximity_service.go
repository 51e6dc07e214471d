package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/config"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/geo"
)

type activeZoneLister interface {
	ListActive() ([]models.RiskZone, error)
}

type recentIncidentLister interface {
	ListRecent(since time.Time) ([]models.Incident, error)
}

// ProximityService answers "what danger is near this point" questions over
// the active risk zones and recent incidents. Zone counts are small enough
// that a full scan with the haversine formula beats maintaining a spatial
// index.
type ProximityService struct {
	zones     activeZoneLister
	incidents recentIncidentLister
	logger    *logrus.Logger
	defaults  config.ProximityConfig
}

// NewProximityService creates a new proximity service
func NewProximityService(
	zones activeZoneLister,
	incidents recentIncidentLister,
	logger *logrus.Logger,
	defaults config.ProximityConfig,
) *ProximityService {
	return &ProximityService{
		zones:     zones,
		incidents: incidents,
		logger:    logger,
		defaults:  defaults,
	}
}

// riskRank orders risk levels for severity comparisons
var riskRank = map[string]int{
	models.RiskLevelLow:      1,
	models.RiskLevelMedium:   2,
	models.RiskLevelHigh:     3,
	models.RiskLevelCritical: 4,
}

// GetNearbyZones returns active zones that overlap a circle of radiusKm
// around the query point, closest first. A zone counts as nearby when the
// centre distance is at most the zone's own radius plus the query radius, so
// a wide zone whose edge reaches into the query circle is reported even when
// its centre sits further out. Equal distances tie-break on ascending id so
// repeated queries return a stable order; a boundary touch is included.
func (s *ProximityService) GetNearbyZones(lat, lon, radiusKm float64) ([]models.NearbyRiskZone, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, NewValidationError("coordinates", err.Error())
	}
	if radiusKm <= 0 {
		radiusKm = s.defaults.DefaultRadiusKm
	}

	zones, err := s.zones.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load risk zones: %w", err)
	}

	nearby := []models.NearbyRiskZone{}
	for _, zone := range zones {
		distance := geo.DistanceKm(lat, lon, zone.Latitude, zone.Longitude)
		if distance <= zone.RadiusKm+radiusKm {
			nearby = append(nearby, models.NearbyRiskZone{RiskZone: zone, DistanceKm: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].RiskZone.ID < nearby[j].RiskZone.ID
	})

	return nearby, nil
}

// LocationCheck reports whether a point sits inside any active risk zone
type LocationCheck struct {
	InRiskZone   bool                    `json:"in_risk_zone"`
	HighestRisk  string                  `json:"highest_risk,omitempty"`
	MatchedZones []models.NearbyRiskZone `json:"matched_zones"`
}

// CheckLocation tests the point against each active zone's own radius. A
// point exactly on a zone boundary counts as inside.
func (s *ProximityService) CheckLocation(lat, lon float64) (*LocationCheck, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, NewValidationError("coordinates", err.Error())
	}

	zones, err := s.zones.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load risk zones: %w", err)
	}

	check := &LocationCheck{MatchedZones: []models.NearbyRiskZone{}}
	for _, zone := range zones {
		distance := geo.DistanceKm(lat, lon, zone.Latitude, zone.Longitude)
		if distance <= zone.RadiusKm {
			check.InRiskZone = true
			check.MatchedZones = append(check.MatchedZones, models.NearbyRiskZone{RiskZone: zone, DistanceKm: distance})
			if riskRank[zone.RiskLevel] > riskRank[check.HighestRisk] {
				check.HighestRisk = zone.RiskLevel
			}
		}
	}

	sort.Slice(check.MatchedZones, func(i, j int) bool {
		if check.MatchedZones[i].DistanceKm != check.MatchedZones[j].DistanceKm {
			return check.MatchedZones[i].DistanceKm < check.MatchedZones[j].DistanceKm
		}
		return check.MatchedZones[i].RiskZone.ID < check.MatchedZones[j].RiskZone.ID
	})

	return check, nil
}

// GetNearbyIncidents returns recent incidents within radiusKm of the point,
// closest first. Recency defaults to the configured window.
func (s *ProximityService) GetNearbyIncidents(lat, lon, radiusKm float64) ([]models.NearbyIncident, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, NewValidationError("coordinates", err.Error())
	}
	if radiusKm <= 0 {
		radiusKm = s.defaults.DefaultRadiusKm
	}

	since := time.Now().UTC().Add(-time.Duration(s.defaults.IncidentRecencyHours) * time.Hour)
	incidents, err := s.incidents.ListRecent(since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent incidents: %w", err)
	}

	nearby := []models.NearbyIncident{}
	for _, incident := range incidents {
		distance := geo.DistanceKm(lat, lon, incident.Latitude, incident.Longitude)
		if distance <= radiusKm {
			nearby = append(nearby, models.NearbyIncident{Incident: incident, DistanceKm: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Incident.ID < nearby[j].Incident.ID
	})

	return nearby, nil
}

// FindZoneForPoint returns the closest active zone containing the point, or
// nil when the point is in the clear. Used to pin incidents to zones.
func (s *ProximityService) FindZoneForPoint(lat, lon float64) (*models.RiskZone, error) {
	check, err := s.CheckLocation(lat, lon)
	if err != nil {
		return nil, err
	}
	if !check.InRiskZone {
		return nil, nil
	}
	zone := check.MatchedZones[0].RiskZone
	return &zone, nil
}

// ClassifyRouteRisk grades a route by the zones its endpoints touch
func (s *ProximityService) ClassifyRouteRisk(route *models.Route) (string, error) {
	start, err := s.CheckLocation(route.StartLatitude, route.StartLongitude)
	if err != nil {
		return "", err
	}
	end, err := s.CheckLocation(route.EndLatitude, route.EndLongitude)
	if err != nil {
		return "", err
	}

	highest := models.RiskLevelLow
	if riskRank[start.HighestRisk] > riskRank[highest] {
		highest = start.HighestRisk
	}
	if riskRank[end.HighestRisk] > riskRank[highest] {
		highest = end.HighestRisk
	}
	return highest, nil
}

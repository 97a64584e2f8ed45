// Package model defines the shared domain types for the outreach orchestrator.
package model

// CitizenID is the stable identifier of a population member.
type CitizenID int64

// AreaID is the stable identifier of an area of interest.
type AreaID int64

// Citizen is a population member as supplied by the population sensor.
type Citizen struct {
	ID              CitizenID `json:"id"`
	Name            string    `json:"name"`
	Gender          string    `json:"gender"`
	Age             int       `json:"age"`
	Education       string    `json:"education"`
	Occupation      string    `json:"occupation"`
	MarriageStatus  string    `json:"marriage_status"`
	BackgroundStory string    `json:"background_story"`
	HomeAreaID      AreaID    `json:"home_area_id"`
	WorkAreaID      AreaID    `json:"work_area_id"`
}

// NoData marks an indicator the extraction could not determine.
// Indicators carrying NoData are excluded from aggregation.
const NoData = -1

// Indicators holds the five per-citizen opinion indicators.
// Awareness and Frugalness are on a 1-4 scale, Policy on 1-5,
// Vehicle and Waste on 1-4 or NoData.
type Indicators struct {
	Awareness  int `json:"awareness"`
	Frugalness int `json:"frugalness"`
	Policy     int `json:"policy"`
	Vehicle    int `json:"vehicle"`
	Waste      int `json:"waste"`
}

// VehicleLabel maps the vehicle indicator to a transport mode name.
func (in Indicators) VehicleLabel() string {
	switch in.Vehicle {
	case 4:
		return "walk"
	case 3:
		return "bicycle"
	case 2:
		return "bus"
	case 1:
		return "car"
	default:
		return "unknown"
	}
}

// ScoredCitizen is a citizen annotated with extraction results.
type ScoredCitizen struct {
	Citizen
	Indicators Indicators `json:"indicators"`
	// Score is the aggregate opinion score on a 1-5 scale.
	Score int `json:"score"`
	// Vehicle is the transport mode label derived from the vehicle indicator.
	Vehicle string `json:"vehicle"`
	// CommuteKM is the home-to-workplace distance in kilometers.
	CommuteKM float64 `json:"commute_km"`
}

// CitizenFilter selects citizens by demographic criteria.
// Zero values mean "no constraint"; at least one constraint must be set.
type CitizenFilter struct {
	Gender         string   `json:"gender,omitempty"`
	MinAge         int      `json:"min_age,omitempty"`
	MaxAge         int      `json:"max_age,omitempty"`
	Education      []string `json:"education,omitempty"`
	MarriageStatus []string `json:"marriage_status,omitempty"`
}

// Empty reports whether the filter carries no constraints at all.
func (f CitizenFilter) Empty() bool {
	return f.Gender == "" && f.MinAge == 0 && f.MaxAge == 0 &&
		len(f.Education) == 0 && len(f.MarriageStatus) == 0
}

// Matches reports whether the citizen satisfies every set constraint.
func (f CitizenFilter) Matches(c Citizen) bool {
	if f.Gender != "" && c.Gender != f.Gender {
		return false
	}
	if f.MinAge > 0 && c.Age < f.MinAge {
		return false
	}
	if f.MaxAge > 0 && c.Age > f.MaxAge {
		return false
	}
	if len(f.Education) > 0 && !contains(f.Education, c.Education) {
		return false
	}
	if len(f.MarriageStatus) > 0 && !contains(f.MarriageStatus, c.MarriageStatus) {
		return false
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

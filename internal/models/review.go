package models

import "time"

type Review struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserFirstName string    `json:"userFirstName"`
	UserGender    string    `json:"userGender"`
	State         string    `json:"state"`
	JobTitle      string    `json:"jobTitle"`
	Employer      string    `json:"employer"`
	City          string    `json:"city"`
	Wages         float64   `json:"wages"`
	HoursPerWeek  int       `json:"hoursPerWeek"`
	Rating        int       `json:"rating"`
	Experience    string    `json:"experience"`
	TimesUsed     int       `json:"timesUsed"`
	TOSAccepted   bool      `json:"tosAccepted"`
	TOSAcceptedAt time.Time `json:"tosAcceptedAt"`
	IsApproved    bool      `json:"isApproved"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ReviewInput struct {
	State        string  `json:"state"`
	JobTitle     string  `json:"jobTitle"`
	Employer     string  `json:"employer"`
	City         string  `json:"city"`
	Wages        float64 `json:"wages"`
	HoursPerWeek int     `json:"hoursPerWeek"`
	Rating       int     `json:"rating"`
	Experience   string  `json:"experience"`
	TimesUsed    int     `json:"timesUsed"`
	UserGender   string  `json:"userGender"`
	TOSAccepted  bool    `json:"tosAccepted"`
}

type StateStats struct {
	State       string  `json:"state"`
	ReviewCount int     `json:"reviewCount"`
	AvgRating   float64 `json:"avgRating"`
	AvgWage     float64 `json:"avgWage"`
}

type StateAnalytics struct {
	State         string  `json:"state"`
	TotalVisitors int     `json:"totalVisitors"`
	AvgRevisit    float64 `json:"avgRevisit"`
}

type AgencyReview struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	UserFirstName      string    `json:"userFirstName"`
	AgencyID           string    `json:"agencyId"`
	AgencyName         string    `json:"agencyName"`
	ApplicationProcess int       `json:"applicationProcess"`
	CustomerService    int       `json:"customerService"`
	Communication      int       `json:"communication"`
	SupportServices    int       `json:"supportServices"`
	OverallExperience  int       `json:"overallExperience"`
	OverallRating      float64   `json:"overallRating"`
	UsageFrequency     int       `json:"usageFrequency"`
	Comments           string    `json:"comments"`
	TOSAcceptedAt      time.Time `json:"tosAcceptedAt"`
	IPAddress          string    `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
}

type AgencyReviewInput struct {
	AgencyID           string  `json:"agencyId"`
	AgencyName         string  `json:"agencyName"`
	ApplicationProcess int     `json:"applicationProcess"`
	CustomerService    int     `json:"customerService"`
	Communication      int     `json:"communication"`
	SupportServices    int     `json:"supportServices"`
	OverallExperience  int     `json:"overallExperience"`
	OverallRating      float64 `json:"overallRating"`
	UsageFrequency     int     `json:"usageFrequency"`
	Comments           string  `json:"comments"`
	TOSAccepted        bool    `json:"tosAccepted"`
}

// Visitor is a site user authenticated by the OAuth layer.
type Visitor struct {
	ID        string
	FirstName string
}

package dto

import "github.com/noah-isme/study-portal/internal/models"

// MaterialQuery binds the listing query string. Empty fields mean "All".
type MaterialQuery struct {
	Semester string `form:"semester"`
	Subject  string `form:"subject"`
	Year     string `form:"year"`
	Type     string `form:"type"`
}

// Selection converts the bound query into a filter selection.
func (q MaterialQuery) Selection() models.FilterSelection {
	sel := models.DefaultFilterSelection(q.Semester)
	if q.Subject != "" {
		sel.Subject = q.Subject
	}
	if q.Year != "" {
		sel.Year = q.Year
	}
	if q.Type != "" {
		sel.Type = q.Type
	}
	return sel
}

// MaterialCard is the display-ready projection of a material.
type MaterialCard struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Subject      string  `json:"subject"`
	Semester     string  `json:"semester"`
	Year         string  `json:"year"`
	Type         string  `json:"type"`
	Icon         string  `json:"icon"`
	UploaderName string  `json:"uploaderName"`
	Badge        string  `json:"badge"`
	BadgeLabel   string  `json:"badgeLabel"`
	FileURL      string  `json:"fileUrl,omitempty"`
	Downloadable bool    `json:"downloadable"`
	Views        int64   `json:"views"`
	Downloads    int64   `json:"downloads"`
	Progress     float64 `json:"progress"`
}

// ListingView is the rendered listing for one screen.
type ListingView struct {
	State      string                 `json:"state"`
	Selection  models.FilterSelection `json:"selection"`
	Cards      []MaterialCard         `json:"items"`
	Total      int                    `json:"total"`
	Generation uint64                 `json:"generation"`
}

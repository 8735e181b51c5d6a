package models

// FilterAll is the sentinel meaning "no constraint" for a filter field.
const FilterAll = "All"

// Filter field names accepted by FilterController.SetField and the query string.
const (
	FilterFieldSemester = "semester"
	FilterFieldSubject  = "subject"
	FilterFieldYear     = "year"
	FilterFieldType     = "type"
)

// FilterSelection is the current filter state of a listing screen.
type FilterSelection struct {
	Semester string `json:"semester"`
	Subject  string `json:"subject"`
	Year     string `json:"year"`
	Type     string `json:"type"`
}

// DefaultFilterSelection returns the selection for a semester with every other field unconstrained.
func DefaultFilterSelection(semester string) FilterSelection {
	return FilterSelection{
		Semester: semester,
		Subject:  FilterAll,
		Year:     FilterAll,
		Type:     FilterAll,
	}
}

package models

import (
	"encoding/json"
	"strings"
)

// Known material types. The set is open-ended: the remote API may return
// anything, and unknown values render with the generic document icon.
const (
	MaterialTypePDF           = "pdf"
	MaterialTypeImage         = "image"
	MaterialTypeNotes         = "notes"
	MaterialTypePaper         = "paper"
	MaterialTypeQuestionPaper = "question paper"
	MaterialTypeDocument      = "document"
)

// KnownMaterialTypes lists the types accepted on upload.
var KnownMaterialTypes = []string{
	MaterialTypePDF,
	MaterialTypeImage,
	MaterialTypeNotes,
	MaterialTypePaper,
	MaterialTypeQuestionPaper,
	MaterialTypeDocument,
}

// Material is a single uploadable academic resource as returned by the remote API.
type Material struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Semester     string `json:"semester,omitempty"`
	GroupName    string `json:"groupName,omitempty"`
	UploadYear   string `json:"uploadYear,omitempty"`
	Type         string `json:"type,omitempty"`
	UploaderName string `json:"uploaderName,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"`
	// Approved is nil when the API did not report an approval state.
	Approved  *bool `json:"approved,omitempty"`
	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`
}

// IsApproved reports whether the material is known to be approved.
func (m Material) IsApproved() bool {
	return m.Approved != nil && *m.Approved
}

// HasFile reports whether the record carries a file reference.
func (m Material) HasFile() bool {
	return strings.TrimSpace(m.FileURL) != ""
}

// UnmarshalJSON accepts the legacy "year" key and numeric years alongside "uploadYear".
func (m *Material) UnmarshalJSON(data []byte) error {
	type alias Material
	aux := struct {
		*alias
		UploadYear json.RawMessage `json:"uploadYear"`
		Year       json.RawMessage `json:"year"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	year := scalarString(aux.UploadYear)
	if year == "" {
		year = scalarString(aux.Year)
	}
	m.UploadYear = year
	return nil
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// MaterialList is the normalized listing shape.
type MaterialList struct {
	Items []Material `json:"items"`
	Total int        `json:"total"`
}

// EmptyMaterialList is what listing degrades to when no backend answers.
func EmptyMaterialList() MaterialList {
	return MaterialList{Items: []Material{}, Total: 0}
}

// Upload status values reported by the remote API for a single submission.
const (
	UploadStatusApproved = "approved"
	UploadStatusPending  = "pending"
	UploadStatusNotFound = "not_found"
)

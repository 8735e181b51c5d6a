package dto

// UploadMaterialRequest is the metadata half of a student submission.
// The file itself travels separately as the "file" multipart part.
type UploadMaterialRequest struct {
	Title        string `form:"title" json:"title" validate:"required,max=200"`
	Description  string `form:"description" json:"description" validate:"max=2000"`
	Subject      string `form:"subject" json:"subject" validate:"required"`
	Semester     string `form:"semester" json:"semester" validate:"required"`
	GroupName    string `form:"groupName" json:"groupName"`
	UploadYear   string `form:"uploadYear" json:"uploadYear" validate:"omitempty,numeric,len=4"`
	Type         string `form:"type" json:"type" validate:"required,materialtype"`
	UploaderName string `form:"uploaderName" json:"uploaderName" validate:"max=120"`
}

// UploadStatusResponse is returned for a single submission lookup.
type UploadStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

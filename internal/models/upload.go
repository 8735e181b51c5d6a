package models

// FormField is one text part of a multipart upload, kept in submission order.
type FormField struct {
	Name  string
	Value string
}

// UploadPayload is a fully buffered submission ready to be replayed against
// each candidate backend.
type UploadPayload struct {
	Fields      []FormField
	FileName    string
	ContentType string
	File        []byte
}

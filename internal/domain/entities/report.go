package entities

// VisitReport is the rendered visit summary handed back to the patient
type VisitReport struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	PDFBase64   string `json:"pdf_base64"`
}

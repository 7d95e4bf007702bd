package document

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/trezcool/campusflow/core"
)

type Type string

// Required document types
const (
	TypeIDProof            Type = "id_proof"
	TypeAddressProof       Type = "address_proof"
	TypeAcademicTranscript Type = "academic_transcript"
	TypeMedicalCertificate Type = "medical_certificate"
	TypePhoto              Type = "photo"
)

type Requirement struct {
	Type        Type   `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var (
	Requirements = []Requirement{
		{Type: TypeIDProof, Label: "ID Proof", Description: "Aadhar Card, Passport or Voter ID"},
		{Type: TypeAddressProof, Label: "Address Proof", Description: "Utility bill or rental agreement"},
		{Type: TypeAcademicTranscript, Label: "Academic Transcript", Description: "Latest mark sheet or degree certificate"},
		{Type: TypeMedicalCertificate, Label: "Medical Certificate", Description: "Fitness certificate from registered doctor"},
		{Type: TypePhoto, Label: "Passport Photo", Description: "Recent passport-size photograph"},
	}
	RequiredTypes = requiredTypes()

	AllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx"}
)

func requiredTypes() []Type {
	types := make([]Type, 0, len(Requirements))
	for _, r := range Requirements {
		types = append(types, r.Type)
	}
	return types
}

func (t Type) Valid() bool {
	switch t {
	case TypeIDProof, TypeAddressProof, TypeAcademicTranscript, TypeMedicalCertificate, TypePhoto:
		return true
	}
	return false
}

// Name is the human readable name of the type, eg. "id proof".
func (t Type) Name() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusUploaded Status = "uploaded"
	StatusVerified Status = "verified"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUploaded, StatusVerified:
		return true
	}
	return false
}

// CanUpload reports whether a file may be uploaded for a document in this status.
func (s Status) CanUpload() bool {
	switch s {
	case StatusPending, StatusUploaded:
		return true
	case StatusVerified:
		return false
	}
	return false
}

// IsPending reports whether the document still needs work (not verified yet).
func (s Status) IsPending() bool {
	switch s {
	case StatusPending, StatusUploaded:
		return true
	case StatusVerified:
		return false
	}
	return false
}

type Document struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Type       Type       `json:"document_type"`
	FileURL    string     `json:"file_url,omitempty"`
	FileName   string     `json:"file_name,omitempty"`
	Status     Status     `json:"status"`
	VerifiedBy string     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at"` // UTC
	CreatedAt  time.Time  `json:"created_at"`  // UTC
	UpdatedAt  time.Time  `json:"updated_at"`  // UTC
}

// Upload contains information needed to attach a file to a Document.
type Upload struct {
	Type     Type   `json:"document_type" form:"document_type" validate:"required"`
	FileURL  string `json:"file_url" validate:"omitempty,max=1024"`
	FileName string `json:"-"`
}

func (up *Upload) Clean() error {
	up.Type = Type(core.CleanString(string(up.Type), true /* lower */))
	if !up.Type.Valid() {
		return core.NewError(core.ErrInvalidArgument, "invalid document type")
	}
	if up.FileURL = core.CleanString(up.FileURL); up.FileURL == "" {
		up.FileURL = "/uploads/placeholder_" + string(up.Type) + ".pdf"
	}
	return nil
}

// CheckExtension fails with core.ErrInvalidArgument unless the file name has an allowed extension.
func CheckExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", core.NewError(core.ErrInvalidArgument, "file type not allowed. Use: "+strings.Join(AllowedExtensions, ", "))
}

type (
	Item struct {
		Document
		Label       string `json:"label"`
		Description string `json:"description"`
	}

	Stats struct {
		Completed  int     `json:"completed"`
		Total      int     `json:"total"`
		Percentage float64 `json:"percentage"`
	}

	// Checklist is a User's required documents, in Requirements order.
	Checklist struct {
		Documents         []Item        `json:"documents"`
		RequiredDocuments []Requirement `json:"required_documents"`
		Stats             Stats         `json:"stats"`
	}
)

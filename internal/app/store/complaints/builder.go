// internal/app/store/complaints/builder.go
package complaintstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/crewvoice/crewvoice/internal/app/system/categories"
	"github.com/crewvoice/crewvoice/internal/app/system/classify"
	"github.com/crewvoice/crewvoice/internal/domain/models"
)

// SubmitInput is validated form input plus the creation context the
// handler has already assembled: the submitter snapshot, the company
// key, the category resolution, and the attachment record (which is
// {has_file:false} when nothing was uploaded or the upload failed).
type SubmitInput struct {
	Title       string
	Description string
	Category    string
	Urgency     string
	IsGlobal    bool
	CompanyKey  string
	Submitter   models.SubmitterSnapshot
	Resolution  categories.Resolution
	Attachment  models.Attachment
}

// FanOut holds the three denormalized copies built from one
// submission. All three share the complaint id, the creation instant,
// and the resolved department; they are committed in one atomic batch
// so they can never diverge from a crash mid-write.
type FanOut struct {
	Canonical models.Complaint
	Flat      models.Complaint
	Search    models.SearchEntry
}

// HierarchicalPath encodes the canonical storage location. The path is
// the sole mechanism partitioning global from department visibility.
func HierarchicalPath(companyKey string, isGlobal bool, complaintID string) string {
	segment := models.ScopeDepartmentSegment
	if isGlobal {
		segment = models.ScopeGlobalSegment
	}
	return fmt.Sprintf("companies/%s/%s/%s", companyKey, segment, complaintID)
}

// BuildFanOut constructs the three copies for a submission. Pure: the
// caller supplies the generated id and the single creation instant
// shared by every timestamp field.
func BuildFanOut(in SubmitInput, complaintID string, now time.Time) FanOut {
	department := in.Resolution.CanonicalName
	path := HierarchicalPath(in.CompanyKey, in.IsGlobal, complaintID)

	canonical := models.Complaint{
		ComplaintID:      complaintID,
		HierarchicalPath: path,
		Title:            in.Title,
		Description:      in.Description,
		Department:       department,
		OriginalCategory: in.Category,
		Urgency:          strings.ToLower(in.Urgency),
		IsGlobal:         in.IsGlobal,
		CompanyKey:       in.CompanyKey,

		Submitter:          in.Submitter,
		AssignedDepartment: in.Resolution.Department,

		Status: models.StatusOpen,
		StatusHistory: []models.StatusChange{{
			Status:    models.StatusOpen,
			ChangedAt: now,
			ChangedBy: "system",
			Reason:    "created",
		}},

		Attachment: in.Attachment,

		Priority:                classify.Priority(in.Urgency, department),
		EstimatedResolutionTime: classify.ResolutionEstimate(in.Urgency),
		Tags:                    classify.Tags(in.Title, in.Description, department),
		SearchTerms: classify.SearchTerms(
			in.Title, in.Description, department, in.Urgency, in.Resolution.Department.Name),

		CreatedAt:    now,
		UpdatedAt:    now,
		LastModified: now,
	}

	search := models.SearchEntry{
		ComplaintID:      complaintID,
		HierarchicalPath: path,
		TitleLower:       strings.ToLower(in.Title),
		DescriptionLower: strings.ToLower(in.Description),
		DepartmentLower:  strings.ToLower(department),
		Urgency:          canonical.Urgency,
		Status:           canonical.Status,
		CompanyKey:       in.CompanyKey,
		IsGlobal:         in.IsGlobal,
		SearchTerms:      canonical.SearchTerms,
		CreatedAt:        now,
	}

	return FanOut{
		Canonical: canonical,
		Flat:      canonical, // flat copy is a field-for-field duplicate with the back-pointer
		Search:    search,
	}
}

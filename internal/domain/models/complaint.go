// internal/domain/models/complaint.go
package models

import "time"

// Complaint urgency levels, lowest to highest.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Complaint status values.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Path segments partitioning complaint visibility. A complaint's
// hierarchical path is companies/<companyKey>/<segment>/<complaintID>;
// the path is the sole mechanism separating company-wide complaints
// from department-only ones.
const (
	ScopeGlobalSegment     = "global_complaints"
	ScopeDepartmentSegment = "department_complaints"
)

// Complaint is the canonical complaint document. The same document is
// duplicated (denormalized) into the flat list collection and the
// search-index collection; all copies share ComplaintID, CreatedAt, and
// the resolved Department and are committed in one atomic batch.
type Complaint struct {
	ComplaintID      string `bson:"complaint_id" json:"complaint_id"`
	HierarchicalPath string `bson:"hierarchical_path" json:"hierarchical_path"`

	Title            string `bson:"title" json:"title"`
	Description      string `bson:"description" json:"description"`
	Department       string `bson:"department" json:"department"`
	OriginalCategory string `bson:"original_category" json:"original_category"`
	Urgency          string `bson:"urgency" json:"urgency"`
	IsGlobal         bool   `bson:"is_global" json:"is_global"`
	CompanyKey       string `bson:"company_key" json:"company_key"`

	Submitter          SubmitterSnapshot  `bson:"submitter" json:"submitter"`
	AssignedDepartment DepartmentSnapshot `bson:"assigned_department" json:"assigned_department"`

	Status        string         `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"status_history" json:"status_history"`

	Attachment Attachment `bson:"attachment" json:"attachment"`

	// Derived fields, computed once at creation and frozen.
	Priority                int      `bson:"priority" json:"priority"`
	EstimatedResolutionTime string   `bson:"estimated_resolution_time" json:"estimated_resolution_time"`
	Tags                    []string `bson:"tags" json:"tags"`
	SearchTerms             []string `bson:"search_terms" json:"search_terms"`

	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
	LastModified time.Time `bson:"last_modified" json:"last_modified"`
}

// StatusChange is one entry in a complaint's append-only status history.
// The initial entry is always {open, createdAt, "system", "created"}.
type StatusChange struct {
	Status    string    `bson:"status" json:"status"`
	ChangedAt time.Time `bson:"changed_at" json:"changed_at"`
	ChangedBy string    `bson:"changed_by" json:"changed_by"`
	Reason    string    `bson:"reason" json:"reason"`
}

// Attachment describes an optional uploaded file. When no file was
// attached (or its upload failed), only HasFile=false is recorded.
type Attachment struct {
	HasFile    bool       `bson:"has_file" json:"has_file"`
	URL        string     `bson:"url,omitempty" json:"url,omitempty"`
	FileName   string     `bson:"file_name,omitempty" json:"file_name,omitempty"`
	FileSize   int64      `bson:"file_size,omitempty" json:"file_size,omitempty"`
	UploadedAt *time.Time `bson:"uploaded_at,omitempty" json:"uploaded_at,omitempty"`
}

// SearchEntry is the search-index copy of a complaint: lower-cased
// fields for naive substring matching plus the back-pointer to the
// canonical document.
type SearchEntry struct {
	ComplaintID      string    `bson:"complaint_id" json:"complaint_id"`
	HierarchicalPath string    `bson:"hierarchical_path" json:"hierarchical_path"`
	TitleLower       string    `bson:"title_lower" json:"title_lower"`
	DescriptionLower string    `bson:"description_lower" json:"description_lower"`
	DepartmentLower  string    `bson:"department_lower" json:"department_lower"`
	Urgency          string    `bson:"urgency" json:"urgency"`
	Status           string    `bson:"status" json:"status"`
	CompanyKey       string    `bson:"company_key" json:"company_key"`
	IsGlobal         bool      `bson:"is_global" json:"is_global"`
	SearchTerms      []string  `bson:"search_terms" json:"search_terms"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

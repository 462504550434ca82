package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusValidated ReportStatus = "validated"
	ReportStatusRejected  ReportStatus = "rejected"
)

// Terminal reports that a status admits no further transitions.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusValidated || s == ReportStatusRejected
}

type ViolationType string

const (
	ViolationSpeeding     ViolationType = "speeding"
	ViolationRedLight     ViolationType = "red-light"
	ViolationWrongLane    ViolationType = "wrong-lane"
	ViolationNoHelmet     ViolationType = "no-helmet"
	ViolationPhoneUse     ViolationType = "phone-use"
	ViolationDrunkDriving ViolationType = "drunk-driving"
	ViolationReckless     ViolationType = "reckless"
	ViolationOther        ViolationType = "other"
)

var violationLabels = map[ViolationType]string{
	ViolationSpeeding:     "Speeding",
	ViolationRedLight:     "Red Light Violation",
	ViolationWrongLane:    "Wrong Lane",
	ViolationNoHelmet:     "No Helmet",
	ViolationPhoneUse:     "Phone Use While Driving",
	ViolationDrunkDriving: "Drunk Driving",
	ViolationReckless:     "Reckless Driving",
	ViolationOther:        "Other",
}

// Demerit severity per violation type. Donkey points for a vehicle are the
// negated sum of severities over its validated reports.
var violationSeverities = map[ViolationType]int{
	ViolationSpeeding:     3,
	ViolationRedLight:     4,
	ViolationWrongLane:    2,
	ViolationNoHelmet:     1,
	ViolationPhoneUse:     2,
	ViolationDrunkDriving: 5,
	ViolationReckless:     4,
	ViolationOther:        1,
}

func (t ViolationType) Valid() bool {
	_, ok := violationLabels[t]
	return ok
}

func (t ViolationType) Label() string {
	if label, ok := violationLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t ViolationType) Severity() int {
	if s, ok := violationSeverities[t]; ok {
		return s
	}
	return violationSeverities[ViolationOther]
}

type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
)

type ViolationReport struct {
	ID            uuid.UUID     `json:"id"`
	Reference     string        `json:"reference"`
	Type          ViolationType `json:"type"`
	Location      string        `json:"location"`
	Description   string        `json:"description"`
	VehicleNumber string        `json:"vehicle_number"`
	Reporter      string        `json:"reporter"`
	MediaType     MediaKind     `json:"media_type"`
	Status        ReportStatus  `json:"status"`
	OccurredAt    time.Time     `json:"occurred_at"`
	CreatedAt     time.Time     `json:"created_at"`
	ReviewedBy    *uuid.UUID    `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewed_at,omitempty"`
	Evidence      []Evidence    `json:"evidence,omitempty" gorm:"-"`
}

type Evidence struct {
	ID          uuid.UUID `json:"id"`
	ReportID    uuid.UUID `json:"report_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Kind        MediaKind `json:"kind"`
	SizeBytes   int64     `json:"size_bytes"`
	StoredPath  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

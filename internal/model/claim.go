package model

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimStatusUnderReview ClaimStatus = "under-review"
	ClaimStatusFlagged     ClaimStatus = "flagged"
	ClaimStatusApproved    ClaimStatus = "approved"
)

type InsuranceClaim struct {
	ID              uuid.UUID   `json:"id"`
	Reference       string      `json:"reference"`
	PolicyHolder    string      `json:"policy_holder"`
	PolicyNumber    string      `json:"policy_number"`
	VehicleNumber   string      `json:"vehicle_number"`
	ClaimAmount     float64     `json:"claim_amount"`
	Description     string      `json:"description"`
	Status          ClaimStatus `json:"status"`
	SuspiciousScore int         `json:"suspicious_score" gorm:"-"`
	UploadDate      time.Time   `json:"upload_date"`
	CreatedAt       time.Time   `json:"created_at"`
}

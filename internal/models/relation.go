package models

import "time"

// Relation statuses.
const (
	RelationPending  = "PENDING"
	RelationAccepted = "ACCEPTED"
	RelationBlocked  = "BLOCKED"
)

// FamilyRelation links a subject (owner) to a guardian or responder (member)
// together with the permissions the owner granted. The realtime layer only
// reads ACCEPTED rows filtered by the relevant flag; invitations and updates
// are handled by the account service.
type FamilyRelation struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	OwnerID             string    `gorm:"size:64;index:idx_relation_pair" json:"owner_id"`
	MemberID            string    `gorm:"size:64;index:idx_relation_pair" json:"member_id"`
	Status              string    `gorm:"size:16;default:PENDING;index" json:"status"`
	CanViewLocation     bool      `gorm:"not null;default:false" json:"can_view_location"`
	CanReceiveEmergency bool      `gorm:"not null;default:false" json:"can_receive_emergency"`
	CanViewMedical      bool      `gorm:"not null;default:false" json:"can_view_medical"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

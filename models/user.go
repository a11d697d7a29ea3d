package models

import (
	"time"
)

type DoctorStatus string

const (
	DoctorPending  DoctorStatus = "PENDING"
	DoctorVerified DoctorStatus = "VERIFIED"
	DoctorRejected DoctorStatus = "REJECTED"
)

type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"password,omitempty"`
	RoleID   uint   `json:"role_id"`
	Role     Role   `json:"role,omitempty" gorm:"foreignKey:RoleID"`

	// Patient-side consumable balance. 2 credits = 1 consultation.
	Credits int `json:"credits" gorm:"default:0"`

	// Doctor fields. CreditBalance is the withdrawable earnings balance,
	// kept in the smallest currency unit.
	CreditBalance int64        `json:"credit_balance" gorm:"default:0"`
	DoctorStatus  DoctorStatus `json:"doctor_status,omitempty"`
	Specialty     string       `json:"specialty,omitempty"`
	Experience    int          `json:"experience,omitempty"`
	LicenseNumber string       `json:"license_number,omitempty"`
	LicenseDocURL string       `json:"license_doc_url,omitempty"`

	CreditPackages     []CreditPackage     `json:"credit_packages,omitempty" gorm:"foreignKey:UserID"`
	CreditTransactions []CreditTransaction `json:"credit_transactions,omitempty" gorm:"foreignKey:UserID"`
	Appointments       []Appointment       `json:"appointments,omitempty" gorm:"foreignKey:DoctorID"`
	PatientBookings    []Appointment       `json:"patient_bookings,omitempty" gorm:"foreignKey:PatientID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDoctor reports whether the user holds the doctor role. The role must be
// preloaded.
func (u *User) IsDoctor() bool {
	return u.Role.Name == RoleDoctor
}

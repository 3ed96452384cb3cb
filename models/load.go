package models

import (
	"time"

	"github.com/google/uuid"
)

// LoadStatus represents the review state of a load
type LoadStatus string

const (
	LoadPending  LoadStatus = "Pending"
	LoadApproved LoadStatus = "Approved"
	LoadDenied   LoadStatus = "Denied"
)

// LoadDetails holds the fields a carrier fills in for a freight load
type LoadDetails struct {
	Customer        string  `json:"customer" validate:"required"`
	ReferenceNumber string  `json:"referenceNumber" validate:"required"`
	CustomerRate    *string `json:"customerRate,omitempty"`
	ContactName     string  `json:"contactName" validate:"required"`

	Carrier              *string `json:"carrier,omitempty"`
	CarrierPaymentMethod *string `json:"carrierPaymentMethod,omitempty"`
	CarrierRate          string  `json:"carrierRate" validate:"required"`

	ChargeServiceFeeToOffice bool   `json:"chargeServiceFeeToOffice"`
	LoadType                 string `json:"loadType" validate:"required"`
	ServiceType              string `json:"serviceType" validate:"required"`
	ServiceGivenAs           string `json:"serviceGivenAs" validate:"required"`
	Commodity                string `json:"commodity" validate:"required"`

	BookedAs    string  `json:"bookedAs" validate:"required"`
	SoldAs      string  `json:"soldAs" validate:"required"`
	Weight      string  `json:"weight" validate:"required"`
	Temperature *string `json:"temperature,omitempty"`

	PickupCityZipcode   *string `json:"pickupCityZipcode,omitempty"`
	PickupPhoneNumber   *string `json:"pickupPhoneNumber,omitempty"`
	PickupSelectCarrier string  `json:"pickupSelectCarrier" validate:"required"`
	PickupName          string  `json:"pickupName" validate:"required"`
	PickupAddress       string  `json:"pickupAddress" validate:"required"`

	DropoffCityZipcode   *string `json:"dropoffCityZipcode,omitempty"`
	DropoffPhoneNumber   *string `json:"dropoffPhoneNumber,omitempty"`
	DropoffSelectCarrier string  `json:"dropoffSelectCarrier" validate:"required"`
	DropoffName          string  `json:"dropoffName" validate:"required"`
	DropoffAddress       string  `json:"dropoffAddress" validate:"required"`

	FileIDs []string `json:"fileIds,omitempty"`
}

// Load represents a freight load
type Load struct {
	ID string `json:"id"`
	LoadDetails
	Status          LoadStatus `json:"status"`
	StatusChangedBy *string    `json:"statusChangedBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewLoad creates a pending Load from details
func NewLoad(details LoadDetails) *Load {
	now := time.Now().UTC()
	return &Load{
		ID:          uuid.New().String(),
		LoadDetails: details,
		Status:      LoadPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateLoadRequest is the body of PUT /loads/{id}. Only set fields change.
type UpdateLoadRequest struct {
	Customer        *string `json:"customer,omitempty"`
	ReferenceNumber *string `json:"referenceNumber,omitempty"`
	CustomerRate    *string `json:"customerRate,omitempty"`
	ContactName     *string `json:"contactName,omitempty"`
	Carrier         *string `json:"carrier,omitempty"`
	CarrierRate     *string `json:"carrierRate,omitempty"`
	Commodity       *string `json:"commodity,omitempty"`
	Weight          *string `json:"weight,omitempty"`
	Temperature     *string `json:"temperature,omitempty"`
	PickupAddress   *string `json:"pickupAddress,omitempty"`
	DropoffAddress  *string `json:"dropoffAddress,omitempty"`
}

// Apply copies the set fields onto l
func (r UpdateLoadRequest) Apply(l *Load) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.Customer, r.Customer)
	set(&l.ReferenceNumber, r.ReferenceNumber)
	set(&l.ContactName, r.ContactName)
	set(&l.CarrierRate, r.CarrierRate)
	set(&l.Commodity, r.Commodity)
	set(&l.Weight, r.Weight)
	set(&l.PickupAddress, r.PickupAddress)
	set(&l.DropoffAddress, r.DropoffAddress)
	if r.CustomerRate != nil {
		l.CustomerRate = r.CustomerRate
	}
	if r.Carrier != nil {
		l.Carrier = r.Carrier
	}
	if r.Temperature != nil {
		l.Temperature = r.Temperature
	}
	l.UpdatedAt = time.Now().UTC()
}

// ChangeLoadStatusRequest is the body of PATCH /loads/{id}/status
type ChangeLoadStatusRequest struct {
	Status LoadStatus `json:"status" validate:"required,oneof=Pending Approved Denied"`
}

// CreateLoadResponse acknowledges POST /loads
type CreateLoadResponse struct {
	Message string `json:"message"`
	LoadID  string `json:"loadId"`
}

// ChangeStatusResponse acknowledges PATCH /loads/{id}/status
type ChangeStatusResponse struct {
	Message         string     `json:"message"`
	LoadID          string     `json:"loadId"`
	Status          LoadStatus `json:"status"`
	StatusChangedBy *string    `json:"statusChangedBy"`
}

// PaginatedLoads is one page of GET /loads
type PaginatedLoads struct {
	Loads []Load `json:"loads"`
	Total int    `json:"total"`
}

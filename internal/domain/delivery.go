package domain

// DeliveryInfo is what the customer enters on the first checkout step.
type DeliveryInfo struct {
	RecipientName string `json:"recipientName" validate:"required"`
	Phone         string `json:"phone" validate:"required,phone"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	City          string `json:"city" validate:"required"`
	District      string `json:"district" validate:"required"`
	AddressDetail string `json:"addressDetail" validate:"required"`
	IsRushOrder   bool   `json:"isRushOrder"`
	RushTimeSlot  string `json:"rushTimeSlot,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

// RushDecision is the outcome of the rush-eligibility rule for an address and product mix.
type RushDecision struct {
	DistrictEligible bool     `json:"districtEligible"`
	MixSupported     bool     `json:"mixSupported"`
	RushItemIDs      []string `json:"rushItemIds,omitempty"`
	RegularItemIDs   []string `json:"regularItemIds,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`
}

// Allowed reports whether rush delivery may be selected.
func (d RushDecision) Allowed() bool {
	return d.DistrictEligible && d.MixSupported
}

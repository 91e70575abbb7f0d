package domain

// RushSupport is the shipping collaborator's answer about a product mix.
type RushSupport struct {
	Supported      bool     `json:"supported"`
	RushItemIDs    []string `json:"rushItemIds"`
	RegularItemIDs []string `json:"regularItemIds"`
	Prompt         string   `json:"prompt,omitempty"`
}

// FeeRequest is a candidate order sent for fee calculation.
type FeeRequest struct {
	Items    []CheckItem  `json:"items"`
	Delivery DeliveryInfo `json:"delivery"`
}

// Fees is the shipping collaborator's fee quote. RushFee is zero unless rush was requested and allowed.
type Fees struct {
	RegularFee int64 `json:"regularFee"`
	RushFee    int64 `json:"rushFee"`
}

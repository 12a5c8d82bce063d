package models

// VerificationRequest is what a client submits to the relay.
type VerificationRequest struct {
	ReceiptData string `json:"receipt-data"`
	UseSandbox  bool   `json:"-"`
}

// VendorRequest is the body posted to the App Store verifyReceipt endpoint.
type VendorRequest struct {
	ReceiptData string `json:"receipt-data"`
	Password    string `json:"password"`
}

// VendorResponse holds the subset of the verifyReceipt response the relay reads.
// Status is nil when the vendor omitted it or sent null.
type VendorResponse struct {
	Status        *int           `json:"status"`
	LatestReceipt *string        `json:"latest_receipt,omitempty"`
	Receipt       *VendorReceipt `json:"receipt,omitempty"`
}

// VendorReceipt is the nested "receipt" object of a verifyReceipt response.
type VendorReceipt struct {
	ExpiresDate *string `json:"expires_date,omitempty"`
}

// VerificationResult is the reduced summary returned to the caller.
type VerificationResult struct {
	Status        int    `json:"status"`
	LatestReceipt string `json:"latest_receipt,omitempty"`
	ExpiresDate   string `json:"expires_date,omitempty"`
}

// ResultFromVendor reduces a vendor response to the fields the relay re-emits.
// Optional fields are copied only when present and non-empty. Callers must
// reject a response without Status before reducing it.
func ResultFromVendor(resp VendorResponse) VerificationResult {
	var out VerificationResult
	if resp.Status != nil {
		out.Status = *resp.Status
	}
	if resp.LatestReceipt != nil && *resp.LatestReceipt != "" {
		out.LatestReceipt = *resp.LatestReceipt
	}
	if resp.Receipt != nil && resp.Receipt.ExpiresDate != nil && *resp.Receipt.ExpiresDate != "" {
		out.ExpiresDate = *resp.Receipt.ExpiresDate
	}
	return out
}

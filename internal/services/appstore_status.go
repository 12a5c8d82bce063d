package services

// verifyReceipt status codes as documented by Apple.
const (
	StatusOK                    = 0
	StatusBadRequestMethod      = 21000
	StatusMalformedData         = 21002
	StatusNotAuthenticated      = 21003
	StatusSharedSecretMismatch  = 21004
	StatusServerUnavailable     = 21005
	StatusSubscriptionExpired   = 21006
	StatusSandboxReceiptOnProd  = 21007
	StatusProductionOnSandbox   = 21008
	StatusInternalDataAccess    = 21009
	StatusAccountNotFound       = 21010
	statusInternalRangeStart    = 21100
	statusInternalRangeEndIncl  = 21199
)

var statusText = map[int]string{
	StatusOK:                   "valid",
	StatusBadRequestMethod:     "request not made with HTTP POST",
	StatusMalformedData:        "receipt-data malformed or missing",
	StatusNotAuthenticated:     "receipt could not be authenticated",
	StatusSharedSecretMismatch: "shared secret does not match",
	StatusServerUnavailable:    "receipt server temporarily unavailable",
	StatusSubscriptionExpired:  "receipt valid but subscription expired",
	StatusSandboxReceiptOnProd: "sandbox receipt sent to production",
	StatusProductionOnSandbox:  "production receipt sent to sandbox",
	StatusInternalDataAccess:   "internal data access error",
	StatusAccountNotFound:      "user account not found or deleted",
}

// StatusText describes a verifyReceipt status code. It is informational only;
// the relay passes the code through unchanged.
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	if code >= statusInternalRangeStart && code <= statusInternalRangeEndIncl {
		return "internal data access error"
	}
	return "unknown status"
}

package mypos

import "strings"

// Outcome is the canonical classification of a gateway response. The
// notification, return redirect and cancel redirect all normalize through
// this type before touching order state.
type Outcome int

const (
	// OutcomeUnknown means the response carried no recognizable status.
	// It must never be treated as success or failure: an unfamiliar
	// response shape on a pending order stays pending.
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeCancel
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancel:
		return "cancel"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Field names the gateway has used for the status value and the numeric
// response code across integration revisions. Lookup is case-insensitive.
var (
	statusFieldNames = []string{"Status", "IPC_Status", "PaymentStatus"}
	codeFieldNames   = []string{"ResponseCode", "RespCode", "ResultCode"}
)

var (
	successWords = map[string]bool{"success": true, "ok": true, "approved": true}
	cancelWords  = map[string]bool{"cancel": true, "cancelled": true, "canceled": true, "usercancel": true}
	failureWords = map[string]bool{"failed": true, "failure": true, "error": true, "declined": true, "rejected": true}
)

// Classify maps the loose status vocabulary of a gateway callback onto one
// canonical outcome. The status field wins; the response code is consulted
// only when the status field is absent or unrecognized. Unknown values are
// explicitly OutcomeUnknown, never a silent success or failure.
func Classify(fields map[string]string) Outcome {
	if status, ok := lookupField(fields, statusFieldNames); ok {
		switch {
		case successWords[status]:
			return OutcomeSuccess
		case cancelWords[status]:
			return OutcomeCancel
		case failureWords[status]:
			return OutcomeFailure
		}
	}

	if code, ok := lookupField(fields, codeFieldNames); ok {
		if code == "0" || code == "00" {
			return OutcomeSuccess
		}
	}

	return OutcomeUnknown
}

func lookupField(fields map[string]string, names []string) (string, bool) {
	for key, value := range fields {
		for _, name := range names {
			if strings.EqualFold(key, name) {
				trimmed := strings.ToLower(strings.TrimSpace(value))
				if trimmed != "" {
					return trimmed, true
				}
			}
		}
	}
	return "", false
}

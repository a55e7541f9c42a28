package mypos

import "testing"

func TestClassifyStatusVocabulary(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   Outcome
	}{
		{"success exact", map[string]string{"Status": "Success"}, OutcomeSuccess},
		{"success lowercase field", map[string]string{"status": "success"}, OutcomeSuccess},
		{"success via ipc field", map[string]string{"IPC_Status": "OK"}, OutcomeSuccess},
		{"approved", map[string]string{"PaymentStatus": "Approved"}, OutcomeSuccess},
		{"cancelled", map[string]string{"Status": "Cancelled"}, OutcomeCancel},
		{"canceled US spelling", map[string]string{"Status": "canceled"}, OutcomeCancel},
		{"user cancel", map[string]string{"status": "UserCancel"}, OutcomeCancel},
		{"failed", map[string]string{"Status": "Failed"}, OutcomeFailure},
		{"declined", map[string]string{"Status": "DECLINED"}, OutcomeFailure},
		{"error", map[string]string{"IPC_Status": "error"}, OutcomeFailure},
		{"code zero without status", map[string]string{"ResponseCode": "0"}, OutcomeSuccess},
		{"code double zero", map[string]string{"RespCode": "00"}, OutcomeSuccess},
		{"nonzero code alone is not failure", map[string]string{"ResponseCode": "17"}, OutcomeUnknown},
		{"unfamiliar status word", map[string]string{"Status": "Processing"}, OutcomeUnknown},
		{"empty fields", map[string]string{}, OutcomeUnknown},
		{"blank status", map[string]string{"Status": "  "}, OutcomeUnknown},
		{"unrelated fields", map[string]string{"foo": "bar"}, OutcomeUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.fields); got != tt.want {
			t.Errorf("%s: Classify(%v) = %v, want %v", tt.name, tt.fields, got, tt.want)
		}
	}
}

func TestClassifyStatusWinsOverCode(t *testing.T) {
	fields := map[string]string{"Status": "Cancelled", "ResponseCode": "0"}
	if got := Classify(fields); got != OutcomeCancel {
		t.Fatalf("expected explicit status to win over response code, got %v", got)
	}
}

package remittance

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/platform/db"
)

var (
	claimA   = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	patientA = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
)

func line(paid string) string {
	return claimA.String() + "|" + patientA.String() + "|2025-06-01|120.00|" + paid + "|20.00|CO-45,PR-1|CHK123|Acme Health"
}

func TestParse(t *testing.T) {
	input := "# remittance advice\n\n" + line("80.00") + "\n" + line("0.00") + "\n"

	items, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	it := items[0]
	if it.ClaimID != claimA || it.PatientID != patientA {
		t.Fatalf("ids = %s / %s", it.ClaimID, it.PatientID)
	}
	if got := it.Date.Format("2006-01-02"); got != "2025-06-01" {
		t.Fatalf("date = %s", got)
	}
	if !it.Allowed.Equal(decimal.RequireFromString("120.00")) ||
		!it.Paid.Equal(decimal.RequireFromString("80.00")) ||
		!it.Adjustment.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("amounts = %s/%s/%s", it.Allowed, it.Paid, it.Adjustment)
	}
	if len(it.ReasonCodes) != 2 || it.ReasonCodes[0] != "CO-45" || it.ReasonCodes[1] != "PR-1" {
		t.Fatalf("reason codes = %v", it.ReasonCodes)
	}
	if it.CheckNumber != "CHK123" || it.PayerName != "Acme Health" {
		t.Fatalf("check/payer = %s / %s", it.CheckNumber, it.PayerName)
	}
}

func TestParse_EmptyReasonCodes(t *testing.T) {
	input := claimA.String() + "|" + patientA.String() + "|2025-06-01|120.00|80.00|20.00||CHK123|Acme Health"
	items, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if items[0].ReasonCodes != nil {
		t.Fatalf("reason codes = %v, want nil", items[0].ReasonCodes)
	}
}

func TestParse_MalformedLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too few fields", "a|b|c"},
		{"bad claim id", "nope|" + patientA.String() + "|2025-06-01|1|1|0||c|p"},
		{"bad patient id", claimA.String() + "|nope|2025-06-01|1|1|0||c|p"},
		{"bad date", claimA.String() + "|" + patientA.String() + "|06/01/2025|1|1|0||c|p"},
		{"bad amount", claimA.String() + "|" + patientA.String() + "|2025-06-01|abc|1|0||c|p"},
		{"negative paid", claimA.String() + "|" + patientA.String() + "|2025-06-01|1|-5|0||c|p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(line("80.00") + "\n" + tt.in))
			if !db.IsValidation(err) {
				t.Fatalf("got %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), "line 2") {
				t.Fatalf("error must name the offending line: %v", err)
			}
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	items, err := Parse(strings.NewReader("# only comments\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

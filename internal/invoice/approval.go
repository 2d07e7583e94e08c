// invoice/approval.go
package invoice

import "github.com/shopspring/decimal"

// ApprovalTier selects which approval queue a new invoice lands in.
type ApprovalTier string

const (
	FirstApproval  ApprovalTier = "first_approval"
	SecondApproval ApprovalTier = "second_approval"
)

// secondApprovalThreshold is the per-line total above which an invoice
// needs a second approver.
var secondApprovalThreshold = decimal.NewFromInt(1000)

// clinicApprovers maps a clinic to its first approver.
var clinicApprovers = map[string]string{
	"SandySprings": "alice@pcs.com",
	"Vancouver":    "jessica@pcs.com",
	"Riddle":       "laura@pcs.com",
}

const defaultApprover = "unknown@pcs.com"

// ApproverFor returns the approver responsible for a clinic's invoices.
func ApproverFor(clinicID string) string {
	if approver, ok := clinicApprovers[clinicID]; ok {
		return approver
	}
	return defaultApprover
}

// RouteApproval decides the approval tier for an invoice: capital
// expenditures and any line over the threshold require a second approval.
func RouteApproval(inv *Invoice) ApprovalTier {
	if inv.CapitalEx {
		return SecondApproval
	}
	for _, line := range inv.Lines {
		if line.Total.GreaterThan(secondApprovalThreshold) {
			return SecondApproval
		}
	}
	return FirstApproval
}

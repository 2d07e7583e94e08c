package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApproverForKnownClinics(t *testing.T) {
	assert.Equal(t, "alice@pcs.com", ApproverFor("SandySprings"))
	assert.Equal(t, "jessica@pcs.com", ApproverFor("Vancouver"))
	assert.Equal(t, "laura@pcs.com", ApproverFor("Riddle"))
}

func TestApproverForUnknownClinic(t *testing.T) {
	assert.Equal(t, defaultApprover, ApproverFor("Nowhere"))
}

func TestRouteApprovalFirstTierByDefault(t *testing.T) {
	inv := &Invoice{
		Lines: []LineItem{
			line("gloves", 60),
			line("gauze", 30),
		},
	}
	assert.Equal(t, FirstApproval, RouteApproval(inv))
}

func TestRouteApprovalSecondTierForCapitalExpenditure(t *testing.T) {
	inv := &Invoice{
		CapitalEx: true,
		Lines:     []LineItem{line("chair part", 50)},
	}
	assert.Equal(t, SecondApproval, RouteApproval(inv))
}

func TestRouteApprovalSecondTierForLargeLine(t *testing.T) {
	inv := &Invoice{
		Lines: []LineItem{
			line("gloves", 60),
			line("panoramic sensor", 4200),
		},
	}
	assert.Equal(t, SecondApproval, RouteApproval(inv))
}

func TestRouteApprovalThresholdIsExclusive(t *testing.T) {
	at := &Invoice{Lines: []LineItem{{Description: "x", Total: decimal.NewFromInt(1000)}}}
	over := &Invoice{Lines: []LineItem{{Description: "x", Total: decimal.RequireFromString("1000.01")}}}

	assert.Equal(t, FirstApproval, RouteApproval(at))
	assert.Equal(t, SecondApproval, RouteApproval(over))
}

package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(desc string, total int64) LineItem {
	return LineItem{Description: desc, Total: decimal.NewFromInt(total)}
}

func TestCategorizeDentalLab(t *testing.T) {
	lines := []LineItem{
		line("Crown Prep - porcelain fused to zirconia", 800),
		line("Shipping", 15),
	}
	assert.Equal(t, CategoryDentalLab, Categorize(lines))
}

func TestCategorizeDentalSupplies(t *testing.T) {
	lines := []LineItem{
		line("Composite restorative material, box of 20", 240),
		line("Nitrile gloves, case", 60),
	}
	assert.Equal(t, CategoryDentalSupplies, Categorize(lines))
}

func TestCategorizeCostWeightsDecideTies(t *testing.T) {
	// Both categories match; the expensive line tips the balance.
	lines := []LineItem{
		line("printer toner", 40),
		line("implant abutment", 900),
	}
	assert.Equal(t, CategoryDentalLab, Categorize(lines))
}

func TestCategorizeMatchedDollarsOutrankScores(t *testing.T) {
	// The cheap line piles up keyword hits, but the money sits on the
	// office line; dollar totals decide, not scores.
	lines := []LineItem{
		line("crown bridge denture implant abutment", 20),
		line("printer", 5000),
	}
	assert.Equal(t, CategoryOffice, Categorize(lines))
}

func TestCategorizeScoreBreaksDollarTies(t *testing.T) {
	lines := []LineItem{
		line("crown", 100),
		line("printer ink", 100),
	}
	// Equal matched dollars; the stronger keyword match wins.
	assert.Equal(t, CategoryOffice, Categorize(lines))
}

func TestCategorizeUnmatchedFallsToOther(t *testing.T) {
	lines := []LineItem{
		line("consulting services Q3", 500),
		line("misc fees", 25),
	}
	assert.Equal(t, CategoryOther, Categorize(lines))
}

func TestCategorizeEmptyInvoice(t *testing.T) {
	assert.Equal(t, CategoryOther, Categorize(nil))
}

func TestCategorizeIgnoresPunctuationAndCase(t *testing.T) {
	lines := []LineItem{line("CROWN, Bridge & Denture work!!", 300)}
	assert.Equal(t, CategoryDentalLab, Categorize(lines))
}

func TestCategoryScoresCapExpensiveLines(t *testing.T) {
	cheap := categoryScores("crown", decimal.NewFromInt(50))
	capped := categoryScores("crown", decimal.NewFromInt(50000))

	// Above the cap the multiplier stops growing.
	assert.True(t, capped[CategoryDentalLab].Equal(cheap[CategoryDentalLab]))
}

func TestCategoryScoresExactMatchOutranksSubstring(t *testing.T) {
	cost := decimal.NewFromInt(100)
	substring := categoryScores("labrador retriever statue", cost)
	word := categoryScores("dental lab invoice", cost)

	assert.True(t, word[CategoryDentalLab].GreaterThan(substring[CategoryDentalLab]))
}

// invoice/categorize.go
package invoice

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Expense categories recognized by the line-item categorizer. Each maps
// to a QuickBooks expense account of the same name.
const (
	CategoryDentalLab      = "Dental Lab"
	CategoryDentalSupplies = "Dental Supplies"
	CategoryCleaning       = "Cleaning Supplies"
	CategoryOffice         = "Office Supplies"
	CategoryOther          = "Other"
)

var categoryKeywords = map[string][]string{
	CategoryDentalLab: {
		"lab", "laboratory", "crown", "bridge", "implant", "denture", "partial",
		"porcelain", "ceramic", "zirconia", "casting", "milling", "cad cam",
		"model", "wax", "try-in", "framework", "abutment", "coping", "veneer",
		"inlay", "onlay", "provisional", "crown prep", "fixed prosthetics",
	},
	CategoryDentalSupplies: {
		"composite", "amalgam", "cement", "bonding", "adhesive", "sealant",
		"fluoride", "anesthetic", "lidocaine", "bur", "handpiece", "scaler",
		"curette", "forceps", "matrix", "glove", "mask", "gauze", "disposable",
		"sterilization", "autoclave", "whitening", "restorative material",
	},
	CategoryCleaning: {
		"cleaner", "cleaning", "disinfectant", "sanitizer", "detergent",
		"degreaser", "wipe", "mop", "air freshener", "paper towel",
		"trash bag", "biohazard", "sharps container", "surface cleaner",
	},
	CategoryOffice: {
		"paper", "printer", "ink", "toner", "cartridge", "stationery",
		"envelope", "label", "folder", "binder", "pen", "notepad",
		"keyboard", "monitor", "charger", "chair", "desk", "cabinet",
	},
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

func normalizeText(text string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(text), " "))
}

// scoreCap limits how much a single expensive line can dominate.
var scoreCap = decimal.NewFromInt(5)

// categoryScores scores one line's text against every category, weighted
// by the line cost so expensive items drive the invoice category.
func categoryScores(text string, cost decimal.Decimal) map[string]decimal.Decimal {
	normalized := normalizeText(text)
	words := strings.Fields(normalized)
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	multiplier := cost.Div(decimal.NewFromInt(10))
	if multiplier.GreaterThan(scoreCap) {
		multiplier = scoreCap
	}

	scores := make(map[string]decimal.Decimal)
	for category, keywords := range categoryKeywords {
		for _, keyword := range keywords {
			if !strings.Contains(normalized, keyword) {
				continue
			}
			base := decimal.NewFromInt(1)
			if keyword == normalized {
				base = decimal.NewFromInt(3)
			} else if _, exact := wordSet[keyword]; exact {
				base = decimal.NewFromInt(2)
			}
			scores[category] = scores[category].Add(base.Mul(multiplier))
		}
	}
	return scores
}

// Categorize assigns an expense category to an invoice from its line
// items: the category whose matched lines carry the most money wins, and
// keyword scores only break dollar ties. The category feeds
// expense-account resolution during bill sync; unmatched invoices fall
// into Other, which maps to the configured default expense account.
func Categorize(lines []LineItem) string {
	if len(lines) == 0 {
		return CategoryOther
	}

	totals := make(map[string]decimal.Decimal)
	scores := make(map[string]decimal.Decimal)
	for _, line := range lines {
		for category, score := range categoryScores(line.Description, line.Total) {
			scores[category] = scores[category].Add(score)
			totals[category] = totals[category].Add(line.Total)
		}
	}

	best := CategoryOther
	bestTotal := decimal.Zero
	bestScore := decimal.Zero
	matched := false
	// Fixed iteration order keeps ties deterministic.
	for _, category := range []string{CategoryDentalLab, CategoryDentalSupplies, CategoryCleaning, CategoryOffice} {
		total, ok := totals[category]
		if !ok {
			continue
		}
		score := scores[category]
		better := total.GreaterThan(bestTotal) ||
			(total.Equal(bestTotal) && score.GreaterThan(bestScore))
		if !matched || better {
			best = category
			bestTotal = total
			bestScore = score
			matched = true
		}
	}
	return best
}

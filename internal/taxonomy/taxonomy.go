package taxonomy

import "regexp"

// Entry defines how free-text line-item labels map to one canonical key.
// Abbrevs are unambiguous short forms matched exactly; Patterns are compiled
// regular expressions; Keywords feed the fuzzy matcher. SkipWords veto a
// fuzzy match even when the similarity clears the threshold — they mark
// labels that look like this concept but mean something else ("net potential
// rent" is not gross scheduled rent).
type Entry struct {
	Abbrevs   []string
	Keywords  []string
	Patterns  []*regexp.Regexp
	SkipWords []string
}

// Taxonomy is an immutable registry mapping canonical financial keys to
// their recognition rules. Built once at startup, read-only thereafter;
// tests inject alternates.
type Taxonomy struct {
	keys    []string // declaration order, for deterministic iteration
	entries map[string]Entry
}

// New builds a Taxonomy from ordered key/entry pairs.
func New(keys []string, entries map[string]Entry) *Taxonomy {
	return &Taxonomy{keys: keys, entries: entries}
}

// Keys returns canonical keys in declaration order.
func (t *Taxonomy) Keys() []string { return t.keys }

// Entry returns the entry for a canonical key.
func (t *Taxonomy) Entry(key string) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

var defaultKeys = []string{
	"gsr",
	"loss_to_lease",
	"vacancy",
	"concessions",
	"bad_debt",
	"non_revenue_units",
	"other_income",
	"total_revenue",
	"taxes",
	"insurance",
	"utilities",
	"repairs_maintenance",
	"payroll",
	"management_fee",
	"marketing",
	"admin",
	"contract_services",
	"turnover",
	"reserves",
	"total_opex",
	"noi",
	"capex",
}

var defaultEntries = map[string]Entry{
	"gsr": {
		Abbrevs:  []string{"gsr", "gpr"},
		Keywords: []string{"gross scheduled rent", "gross potential rent", "scheduled market rent", "residential income", "gross market rent"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^gross\s+(scheduled|potential|market)\s+rent`),
		},
		SkipWords: []string{"net", "excl", "less", "effective"},
	},
	"loss_to_lease": {
		Abbrevs:  []string{"ltl"},
		Keywords: []string{"loss to lease", "gain to lease", "loss/gain to lease"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(loss|gain)[\s/]*(\(|to\s)+lease`),
		},
	},
	"vacancy": {
		Abbrevs:  []string{"vac"},
		Keywords: []string{"vacancy", "vacancy loss", "physical vacancy", "vacant units"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^vacanc`),
		},
	},
	"concessions": {
		Keywords: []string{"concessions", "rent concessions", "leasing concessions", "specials"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)concession`),
		},
	},
	"bad_debt": {
		Keywords: []string{"bad debt", "collection loss", "credit loss", "write offs", "delinquency"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)bad\s+debt|collection\s+loss|write[\s-]?offs?`),
		},
	},
	"non_revenue_units": {
		Keywords: []string{"non revenue units", "model units", "employee units", "down units", "admin units"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)non[\s-]?revenue|model\s+unit|employee\s+unit`),
		},
	},
	"other_income": {
		Abbrevs:  []string{"rubs"},
		Keywords: []string{"other income", "utility reimbursement", "ancillary income", "fee income", "parking income", "laundry income", "pet fees", "application fees"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)other\s+income|ancillary|reimbursements?$`),
		},
	},
	"total_revenue": {
		Abbrevs:  []string{"egi", "tgi"},
		Keywords: []string{"total revenue", "effective gross income", "total income", "total operating income", "net rental income"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(total|effective)\s+(gross\s+)?(revenue|income)`),
		},
		SkipWords: []string{"expense"},
	},
	"taxes": {
		Abbrevs:  []string{"re taxes"},
		Keywords: []string{"real estate taxes", "property taxes", "ad valorem"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(real\s+estate|property|ad\s+valorem)\s+tax`),
		},
		SkipWords: []string{"payroll"},
	},
	"insurance": {
		Keywords: []string{"insurance", "property insurance", "hazard insurance"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)insurance`),
		},
		SkipWords: []string{"health", "workers"},
	},
	"utilities": {
		Keywords: []string{"utilities", "electric", "gas", "water and sewer", "water sewer", "trash removal"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^utilit|water\s*(and|&|/)?\s*sewer|^electric|^trash`),
		},
	},
	"repairs_maintenance": {
		Abbrevs:  []string{"r&m", "r & m"},
		Keywords: []string{"repairs and maintenance", "repairs maintenance", "maintenance and repairs", "general maintenance"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)repairs?\s*(and|&|/)?\s*maint|^maintenance`),
		},
	},
	"payroll": {
		Keywords: []string{"payroll", "salaries and wages", "personnel", "payroll taxes and benefits"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)payroll|salaries|wages|personnel`),
		},
	},
	"management_fee": {
		Abbrevs:  []string{"mgmt fee"},
		Keywords: []string{"management fee", "property management", "management fees"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)management\s+fees?|property\s+management`),
		},
	},
	"marketing": {
		Keywords: []string{"marketing", "advertising", "leasing and marketing", "promotions"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)marketing|advertising`),
		},
	},
	"admin": {
		Abbrevs:  []string{"g&a"},
		Keywords: []string{"administrative", "general and administrative", "office expenses", "professional fees"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)administrat|general\s*(and|&)\s*admin|office\s+expense`),
		},
	},
	"contract_services": {
		Keywords: []string{"contract services", "landscaping", "pest control", "security services", "pool service", "snow removal"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)contract\s+services|landscap|pest\s+control|snow\s+removal`),
		},
	},
	"turnover": {
		Keywords: []string{"turnover", "make ready", "unit turns", "turn costs"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)turnover|make[\s-]?ready|unit\s+turns`),
		},
	},
	"reserves": {
		Keywords: []string{"replacement reserves", "reserves for replacement", "capital reserves"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)reserves?\s+for\s+replacement|replacement\s+reserves?|capital\s+reserves?`),
		},
	},
	"total_opex": {
		Abbrevs:  []string{"opex", "toe"},
		Keywords: []string{"total operating expenses", "total expenses", "operating expenses total"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^total\s+(operating\s+)?expenses?`),
		},
	},
	"noi": {
		Abbrevs:  []string{"noi"},
		Keywords: []string{"net operating income"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)net\s+operating\s+income`),
		},
	},
	"capex": {
		Abbrevs:  []string{"capex"},
		Keywords: []string{"capital expenditures", "capital improvements", "capital projects"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)capital\s+(expenditure|improvement|project)`),
		},
	},
}

// Default returns the built-in multifamily chart-of-accounts taxonomy.
func Default() *Taxonomy {
	return New(defaultKeys, defaultEntries)
}

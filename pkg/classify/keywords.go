package classify

const (
	// StrongWeight is added for each matched strong term
	StrongWeight = 3
	// WeakWeight is added for each matched weak term
	WeakWeight = 1
)

// Keywords is the strong/weak term list of one category
type Keywords struct {
	Strong []string `yaml:"strong" json:"strong"`
	Weak   []string `yaml:"weak" json:"weak"`
}

// Tables holds the keyword lists of both scored categories. Terms are
// matched as lowercase substrings, so short terms also match inside longer
// words ("ai" in "maintain").
type Tables struct {
	Tech    Keywords `yaml:"tech" json:"tech"`
	Medical Keywords `yaml:"medical" json:"medical"`
}

// DefaultTables returns the built-in keyword lists
func DefaultTables() Tables {
	return Tables{
		Tech: Keywords{
			Strong: []string{
				"founder",
				"startup",
				"venture capital",
				"vc",
				"investor",
				"engineer",
				"developer",
				"software",
				"machine learning",
				"artificial intelligence",
				"entrepreneur",
			},
			Weak: []string{
				"ai",
				"tech",
				"crypto",
				"web3",
				"saas",
				"product",
				"angel",
				"code",
				"data",
				"cloud",
				"llm",
			},
		},
		Medical: Keywords{
			Strong: []string{
				"doctor",
				"physician",
				"surgeon",
				"nurse",
				"medical",
				"medicine",
				"clinician",
				"healthcare",
				"hospital",
				"cardiolog",
				"oncolog",
				"radiolog",
				"dentist",
				"residency",
			},
			Weak: []string{
				"health",
				"md",
				"pharma",
				"biotech",
				"clinic",
				"pediatric",
				"therapy",
				"wellness",
				"patients",
			},
		},
	}
}

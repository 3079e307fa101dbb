package scoring

// Profile holds the tunable weights of the scoring model. The zero value is
// not useful; start from DefaultProfile and override through rules.Load.
type Profile struct {
	TargetIndustries []string `yaml:"target_industries"`
	DecisionRoles    []string `yaml:"decision_roles"`
	InfluencerRoles  []string `yaml:"influencer_roles"`
	Products         []string `yaml:"products"`

	// Budget range (same currency unit as Lead.BudgetAmount) the product fits.
	MinBudget int64 `yaml:"min_budget"`
	MaxBudget int64 `yaml:"max_budget"`

	// Interaction window used for the frequency component.
	FrequencyWindowDays int `yaml:"frequency_window_days"`
	PointsPerBANTFlag   int `yaml:"points_per_bant_flag"`
}

// DefaultProfile returns the built-in scoring weights.
func DefaultProfile() Profile {
	return Profile{
		TargetIndustries:    []string{"technology", "software", "finance", "healthcare", "manufacturing", "energy"},
		DecisionRoles:       []string{"owner", "founder", "ceo", "cto", "cfo", "coo", "president", "director", "vp", "head"},
		InfluencerRoles:     []string{"manager", "lead", "architect", "consultant", "buyer", "procurement"},
		Products:            []string{"platform", "analytics", "integration", "support", "training"},
		MinBudget:           5_000,
		MaxBudget:           250_000,
		FrequencyWindowDays: 30,
		PointsPerBANTFlag:   4,
	}
}

// companySizePoints scores the normalized company size label.
var companySizePoints = map[string]int{
	"enterprise": 8,
	"large":      7,
	"medium":     5,
	"mid":        5,
	"small":      3,
	"micro":      2,
	"startup":    2,
}

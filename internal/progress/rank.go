package progress

// Rank is a career tier unlocked by total stars.
type Rank string

const (
	RankIntern    Rank = "intern"
	RankResident  Rank = "resident"
	RankRegistrar Rank = "registrar"
	RankAttending Rank = "attending"
	RankChief     Rank = "chief"
)

// Tier pairs a rank with the star total needed to reach it.
type Tier struct {
	Rank      Rank
	Threshold int
}

// Tiers is the rank table in ascending threshold order.
var Tiers = []Tier{
	{RankIntern, 0},
	{RankResident, 5},
	{RankRegistrar, 15},
	{RankAttending, 30},
	{RankChief, 50},
}

// GlobalCap is the star total that completes the top tier: every case at
// three stars.
const GlobalCap = 75

// DisplayName returns a human-readable label for the rank.
func (r Rank) DisplayName() string {
	switch r {
	case RankIntern:
		return "Intern"
	case RankResident:
		return "Resident"
	case RankRegistrar:
		return "Registrar"
	case RankAttending:
		return "Attending"
	case RankChief:
		return "Chief of Medicine"
	default:
		return string(r)
	}
}

// Standing is a star total placed on the rank table.
type Standing struct {
	Total         int     `json:"total_stars"`
	Rank          Rank    `json:"rank"`
	NextThreshold int     `json:"next_threshold"`
	Fraction      float64 `json:"progress_fraction"`
}

// RankFor places total on the rank table. Fraction is the progress from the
// current tier's threshold toward the next one, clamped to [0,1].
func RankFor(total int) Standing {
	idx := 0
	for i, t := range Tiers {
		if t.Threshold <= total {
			idx = i
		}
	}
	cur := Tiers[idx]
	next := GlobalCap
	if idx+1 < len(Tiers) {
		next = Tiers[idx+1].Threshold
	}
	frac := float64(total-cur.Threshold) / float64(max(1, next-cur.Threshold))
	return Standing{
		Total:         total,
		Rank:          cur.Rank,
		NextThreshold: next,
		Fraction:      max(0, min(1, frac)),
	}
}

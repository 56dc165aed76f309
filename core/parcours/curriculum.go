package parcours

import "sort"

// DefaultTag identifies the curriculum used when a formation carries an
// unknown tag (and the one offered first when creating a formation).
const DefaultTag = 100

// Curriculum describes one curriculum variant: how many semesters it runs,
// the validation thresholds, and which jury codes it forbids.
type Curriculum struct {
	Tag   int    // unique numeric identifier, stored on formations
	Name  string // short name, e.g. "DUT"
	Descr string // human description, e.g. "DUT over 4 semesters"

	NbSem  int    // number of semesters; 1 for single-session programs
	Abbrev string // session abbreviation: "S" for S1, S2... or "A" for years

	BarreMoy       float64             // general-average pass threshold
	BarreUEDefault float64             // default per-UE elimination threshold
	BarreUE        map[int]float64     // per-UE-type overrides of BarreUEDefault
	BarreValidUE   float64             // average above which a UE is acquired (capitalized)
	AllowedUETypes []int
	AllowSemSkip   bool // may students skip a semester (staggered curricula)
	UEIsModule     bool // one module per UE

	// UnusedCodes are jury codes this variant forbids (e.g. single-session
	// programs have no other semester to wait on, so no ATT/ATB/ADC).
	UnusedCodes map[string]bool

	// ECTS-accumulation mode: juries only compare potential credits to the
	// thresholds below; averages, UE thresholds and compensation do not apply.
	ECTSOnly             bool
	ECTSValidYear        int // potential credits required to validate the year
	ECTSFundamentalsYear int // fundamental credits required to validate the year
	ECTSProfessionalDipl int // professional credits required for the diploma
}

// CodeAllowed reports whether the jury code may be used in this curriculum.
func (c *Curriculum) CodeAllowed(code string) bool {
	return !c.UnusedCodes[code]
}

// BarreUEFor returns the elimination threshold for a UE of the given type,
// lowered by the rounding tolerance unless tolerance is false.
func (c *Curriculum) BarreUEFor(ueType int, tolerance bool) float64 {
	barre, ok := c.BarreUE[ueType]
	if !ok {
		barre = c.BarreUEDefault
	}
	if tolerance {
		return barre - NotesTolerance
	}
	return barre
}

// BarreMoyWithTolerance returns the general-average threshold lowered by the
// rounding tolerance.
func (c *Curriculum) BarreMoyWithTolerance() float64 {
	return c.BarreMoy - NotesTolerance
}

// IsTerminalRank reports whether rank is the curriculum's last semester.
// Single-session programs (rank NoSemesterRank) are always terminal.
func (c *Curriculum) IsTerminalRank(rank int) bool {
	return rank == NoSemesterRank || rank == c.NbSem
}

var curricula = make(map[int]*Curriculum)

// Register adds a curriculum variant to the registry. Tags must be unique.
func Register(c *Curriculum) {
	if _, dup := curricula[c.Tag]; dup {
		panic("parcours: duplicate curriculum tag")
	}
	curricula[c.Tag] = c
}

// FromTag returns the curriculum registered under tag, or the default
// curriculum if the tag is unknown (legacy data carries stale tags).
func FromTag(tag int) *Curriculum {
	if c, ok := curricula[tag]; ok {
		return c
	}
	return curricula[DefaultTag]
}

// Tags lists the registered curriculum tags in ascending order.
func Tags() []int {
	tags := make([]int, 0, len(curricula))
	for tag := range curricula {
		tags = append(tags, tag)
	}
	sort.Ints(tags)
	return tags
}

func newBase(tag int, name, descr string, nbSem int) *Curriculum {
	return &Curriculum{
		Tag:            tag,
		Name:           name,
		Descr:          descr,
		NbSem:          nbSem,
		Abbrev:         "S",
		BarreMoy:       10.0,
		BarreUEDefault: 8.0,
		BarreValidUE:   10.0,
		AllowedUETypes: []int{UEStandard, UESport},
		UnusedCodes:    map[string]bool{},
	}
}

func init() {
	// DUT over 4 semesters (August 2005 regulation), the reference variant.
	Register(newBase(100, "DUT", "DUT over 4 semesters", 4))

	// DUT in a single year (continuing education, special years): no other
	// semester to wait on or compensate with.
	dutMono := newBase(120, "DUT", "DUT in one year", 1)
	dutMono.UnusedCodes = map[string]bool{ADC: true, ATT: true, ATB: true}
	Register(dutMono)

	// DUT over two semesters (semesterized special years).
	Register(newBase(130, "DUT2", "DUT over 2 semesters", 2))

	// Professional licence in one session: no UE threshold except the
	// internship UE, and no waiting codes.
	lp := newBase(200, "LP", "Professional licence (one session)", 1)
	lp.BarreUEDefault = 0.0
	lp.BarreUE = map[int]float64{UEInternshipLP: 10.0}
	lp.AllowedUETypes = []int{UEStandard, UESport, UEInternshipLP}
	lp.UnusedCodes = map[string]bool{ADC: true, ATT: true, ATB: true}
	Register(lp)

	// Professional licence over two semesters: waiting allowed, compensation not.
	lp2 := newBase(210, "LP2sem", "Professional licence (two sessions)", 2)
	lp2.BarreUEDefault = 0.0
	lp2.BarreUE = map[int]float64{UEInternshipLP: 10.0}
	lp2.AllowedUETypes = []int{UEStandard, UESport, UEInternshipLP}
	lp2.UnusedCodes = map[string]bool{ADC: true}
	Register(lp2)

	// Master 2 over two semesters.
	m2 := newBase(250, "M2", "Master 2 over 2 semesters", 2)
	m2.UnusedCodes = map[string]bool{ATT: true, ATB: true}
	Register(m2)

	// Generic 6-semester curriculum.
	Register(newBase(600, "6sem", "Generic curriculum over 6 semesters", 6))

	// ECTS-accumulation bachelor over 6 semesters: juries compare potential
	// credits to the yearly and fundamentals thresholds, nothing else.
	bach := newBase(1001, "BachelorECTS", "Bachelor over 3 years (ECTS accumulation)", 6)
	bach.ECTSOnly = true
	bach.ECTSValidYear = 60
	bach.ECTSFundamentalsYear = 42
	bach.ECTSProfessionalDipl = 8
	bach.UEIsModule = true
	bach.AllowedUETypes = []int{UEStandard, UEElective, UEProfessional}
	bach.UnusedCodes = map[string]bool{ADC: true, ATT: true, ATB: true, ATJ: true}
	Register(bach)

	// ECTS licence with a lower yearly barre (sports-science style programs).
	lic := newBase(1002, "LicenceECTS", "Licence over 3 years (ECTS accumulation)", 6)
	lic.ECTSOnly = true
	lic.ECTSValidYear = 48
	lic.ECTSFundamentalsYear = 42
	lic.UEIsModule = true
	lic.AllowedUETypes = []int{UEStandard, UEElective, UEProfessional}
	lic.UnusedCodes = map[string]bool{ADC: true, ATT: true, ATB: true, ATJ: true}
	Register(lic)
}

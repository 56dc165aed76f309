// Package parcours encodes the academic regulation driving jury decisions:
// the decision/outcome code vocabulary, the curriculum variants with their
// validation thresholds, and the ordered rule table applied by juries.
package parcours

// Jury decision codes, aligned with the ADIUT/Apogée vocabulary.
const (
	ADM = "ADM" // validated: general average, UE thresholds and attendance all ok
	ADC = "ADC" // validated by compensation with an adjacent semester
	ADJ = "ADJ" // validated by jury decision
	ATT = "ATT" // waiting on another semester: general average below threshold
	ATB = "ATB" // waiting on another semester: at least one UE below its threshold
	ATJ = "ATJ" // waiting on another semester: insufficient attendance
	AJ  = "AJ"  // failed
	CMP = "CMP" // UE level only: acquired because the semester is acquired
	NAR = "NAR" // failed, not allowed to re-enroll
	RAT = "RAT" // waiting for make-up exams
	DEF = "DEF" // defaulted (student missing); a state more than a jury code
)

// Devenir codes: what the decision allows the student to do next.
const (
	DevNext        = "NEXT"          // move on to the next semester
	DevNext2       = "NEXT2"         // skip to semester n+2 (staggered curricula)
	DevNextOrNext2 = "NEXT_OR_NEXT2" // next, or skip one
	DevRedoYear    = "REDOANNEE"     // repeat the year (back to semester n-1)
	DevRedoSem     = "REDOSEM"       // repeat the semester (staggered curricula only)
	DevRedoYearOr  = "RA_OR_NEXT"    // move on, or repeat the year
	DevRedoYearSem = "RA_OR_RS"      // repeat the year, or the semester
	DevRedoSemOr   = "RS_OR_NEXT"    // move on, or repeat the semester
	DevReorient    = "REO"           // reorientation, leaves the curriculum
)

// NoSemesterRank is the rank of semesters in curricula that have none
// (single-session programs).
const NoSemesterRank = -1

// NotesTolerance absorbs float rounding when comparing an average to a
// threshold: a 9.999 average displayed as 10.00 must not read as "below 10".
const NotesTolerance = 0.00499999999999

// CompensationThreshold is the minimum mean of two adjacent semesters'
// general averages for one to compensate the other.
const CompensationThreshold = 10.0 - NotesTolerance

var (
	semValidatingCodes = map[string]bool{ADM: true, ADC: true, ADJ: true}
	semWaitingCodes    = map[string]bool{ATT: true, ATB: true, ATJ: true}
	ueValidatingCodes  = map[string]bool{ADM: true, CMP: true}

	// codes a previous semester may carry and still take part in a compensation
	compensableCodes = map[string]bool{ADM: true, ADJ: true, ATT: true, ADC: true}

	// AllCodes lists every jury decision code, semester or UE level.
	AllCodes = []string{ADM, ADC, ADJ, ATT, ATB, ATJ, AJ, CMP, NAR, RAT, DEF}

	// CodeDescriptions gives the jury-facing wording for each code.
	CodeDescriptions = map[string]string{
		ADM: "validated",
		ADC: "validated by compensation",
		ADJ: "validated by the jury",
		ATT: "decision pending another semester (average below threshold)",
		ATB: "decision pending another semester (UE below threshold)",
		ATJ: "decision pending another semester (insufficient attendance)",
		AJ:  "failed",
		CMP: "UE acquired with its semester",
		NAR: "failed, re-enrollment denied",
		RAT: "waiting for make-up exams",
		DEF: "defaulted",
	}
)

// IsSemValidating reports whether the code validates its semester.
func IsSemValidating(code string) bool { return semValidatingCodes[code] }

// IsSemWaiting reports whether the code leaves the semester validable later,
// by jury or by compensation.
func IsSemWaiting(code string) bool { return semWaitingCodes[code] }

// IsUEValidating reports whether the code acquires its UE.
func IsUEValidating(code string) bool { return ueValidatingCodes[code] }

// IsCompensable reports whether a semester carrying this decision code may
// still be used in a compensation pair.
func IsCompensable(code string) bool { return compensableCodes[code] }

// IsKnownCode reports whether code belongs to the jury vocabulary.
func IsKnownCode(code string) bool {
	for _, c := range AllCodes {
		if c == code {
			return true
		}
	}
	return false
}

// NextRanks returns the semester ranks a devenir authorizes enrollment into,
// clipped to the curriculum's 1..nbSem range. Repeating the year from the
// first semester means repeating that semester.
func NextRanks(devenir string, rank, nbSem int) []int {
	if rank == NoSemesterRank {
		return nil
	}
	redo := rank - 1
	if redo < 1 {
		redo = 1
	}
	var ranks []int
	switch devenir {
	case DevNext:
		ranks = []int{rank + 1}
	case DevNext2:
		ranks = []int{rank + 2}
	case DevNextOrNext2:
		ranks = []int{rank + 1, rank + 2}
	case DevRedoYear:
		ranks = []int{redo}
	case DevRedoSem:
		ranks = []int{rank}
	case DevRedoYearOr:
		ranks = []int{redo, rank + 1}
	case DevRedoYearSem:
		ranks = []int{redo, rank}
	case DevRedoSemOr:
		ranks = []int{rank, rank + 1}
	case DevReorient:
		return nil
	}
	valid := ranks[:0]
	for _, r := range ranks {
		if r >= 1 && r <= nbSem {
			valid = append(valid, r)
		}
	}
	return valid
}

// UE types.
const (
	UEStandard     = 0 // fundamental UE
	UESport        = 1 // sport/culture bonus
	UEInternshipLP = 2 // tutored project and internship UE (pro licences)
	UEInternship10 = 3 // internship UE with a 10/20 required average
	UEElective     = 4
	UEProfessional = 5
	UEOptional     = 6
)

// UEIsFundamental reports whether UEs of this type count toward the
// fundamental-credits thresholds.
func UEIsFundamental(ueType int) bool {
	switch ueType {
	case UEStandard, UEInternshipLP, UEProfessional:
		return true
	}
	return false
}

// UETypeNames maps UE types to their display names.
var UETypeNames = map[int]string{
	UEStandard:     "Standard",
	UESport:        "Sport/Culture (bonus points)",
	UEInternshipLP: "Tutored project and internship",
	UEInternship10: "Internship (min. average 10/20)",
	UEElective:     "Elective",
	UEProfessional: "Professional",
	UEOptional:     "Optional",
}

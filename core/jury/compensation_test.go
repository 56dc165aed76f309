package jury

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core/parcours"
)

func side(semID, rank int, moy float64, uesOK bool) CompensationSide {
	return CompensationSide{SemesterID: semID, Rank: rank, Moy: null.Float64From(moy), UEsOK: uesOK}
}

func TestCheckCompensation(t *testing.T) {
	tests := []struct {
		name             string
		current, partner CompensationSide
		want             bool
	}{
		{
			name:    "mean above threshold",
			current: side(2, 2, 11, true),
			partner: side(1, 1, 9.2, true),
			want:    true,
		},
		{
			name:    "mean exactly at threshold within tolerance",
			current: side(2, 2, 10.5, true),
			partner: side(1, 1, 9.5, true),
			want:    true,
		},
		{
			name:    "mean below threshold",
			current: side(2, 2, 10, true),
			partner: side(1, 1, 9.5, true),
			want:    false,
		},
		{
			name:    "non adjacent ranks",
			current: side(3, 3, 12, true),
			partner: side(1, 1, 12, true),
			want:    false,
		},
		{
			name:    "current UE threshold unmet",
			current: side(2, 2, 11, false),
			partner: side(1, 1, 11, true),
			want:    false,
		},
		{
			name:    "partner UE threshold unmet",
			current: side(2, 2, 11, true),
			partner: side(1, 1, 11, false),
			want:    false,
		},
		{
			name:    "partner average missing",
			current: side(2, 2, 11, true),
			partner: CompensationSide{SemesterID: 1, Rank: 1, UEsOK: true},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckCompensation(tt.current, tt.partner); got != tt.want {
				t.Errorf("CheckCompensation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckCompensationPartnerDecision(t *testing.T) {
	current := side(2, 2, 11, true)

	// still-eligible codes may take part in a pair
	for _, code := range []string{parcours.ADM, parcours.ADJ, parcours.ATT, parcours.ADC, ""} {
		partner := side(1, 1, 9.2, true)
		partner.DecisionCode = code
		if !CheckCompensation(current, partner) {
			t.Errorf("CheckCompensation() with partner code %q = false, want true", code)
		}
	}
	for _, code := range []string{parcours.AJ, parcours.NAR, parcours.ATB, parcours.ATJ, parcours.DEF} {
		partner := side(1, 1, 9.2, true)
		partner.DecisionCode = code
		if CheckCompensation(current, partner) {
			t.Errorf("CheckCompensation() with partner code %q = true, want false", code)
		}
	}
}

func TestCheckCompensationPartnerAlreadyPaired(t *testing.T) {
	current := side(2, 2, 11, true)

	// partner already compensating a different semester
	partner := side(1, 1, 9.2, true)
	partner.DecisionCode = parcours.ADC
	partner.CompenseSemesterID = null.IntFrom(5)
	if CheckCompensation(current, partner) {
		t.Error("CheckCompensation() = true, want false (partner paired elsewhere)")
	}

	// pointing back at the current semester is fine (re-validation)
	partner.CompenseSemesterID = null.IntFrom(2)
	if !CheckCompensation(current, partner) {
		t.Error("CheckCompensation() = false, want true (partner paired with current)")
	}
}

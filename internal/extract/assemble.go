package extract

import "github.com/ppiankov/petty/internal/model"

// GenderResolver maps forenames to a gender
type GenderResolver interface {
	Resolve(forenames string) model.Gender
}

// fields holds the case-level values found in one record
type fields struct {
	date, offence, location, court, division string
}

// assemble builds the case. Defendants is never nil so an empty list still
// serialises as []; every other empty field is omitted.
func assemble(f fields, defendants, witnesses []model.Person, resolver GenderResolver) *model.Case {
	c := &model.Case{
		Date:            f.date,
		Offence:         f.offence,
		OffenceLocation: f.location,
		Court:           f.court,
		Division:        f.division,
		Defendants:      withGender(defendants, resolver),
		InvolvedPersons: withGender(witnesses, resolver),
	}
	if c.Defendants == nil {
		c.Defendants = []model.Person{}
	}
	return c
}

func withGender(people []model.Person, resolver GenderResolver) []model.Person {
	if len(people) == 0 {
		return nil
	}

	out := make([]model.Person, 0, len(people))
	for _, p := range people {
		if p.Forenames == "" || p.Surname == "" {
			continue
		}
		p.Gender = model.GenderUnknown
		if resolver != nil {
			p.Gender = resolver.Resolve(p.Forenames)
		}
		out = append(out, p)
	}
	return out
}

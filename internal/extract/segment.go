package extract

import (
	"strings"

	"github.com/ppiankov/petty/internal/model"
)

// clause segments the people named in one run of tokens, such as the
// defendant list after "conviction of" or the witnesses after "oath of"
type clause struct {
	doc      *model.Document
	limit    int
	stops    map[string]bool
	truncate bool

	buf        []int // token indexes of the pending name
	people     []model.Person
	seen       map[string]bool
	collective string
	inherited  map[int]bool // people whose residence is an earlier group's collective
}

func newClause(doc *model.Document, from, limit int, stops map[string]bool) *clause {
	return &clause{
		doc:       doc,
		limit:     limit,
		stops:     stops,
		truncate:  needsTruncation(doc, from, limit),
		seen:      make(map[string]bool),
		inherited: make(map[int]bool),
	}
}

// segmentDefendants returns the defendants named between "conviction" and
// the first "for", "on" or "offence" of that sentence
func segmentDefendants(doc *model.Document) []model.Person {
	anchor := indexOf(doc, 0, len(doc.Tokens), "conviction")
	if anchor < 0 {
		return nil
	}
	limit := doc.SentenceOf(anchor).End
	return newClause(doc, anchor+1, limit, defendantStops).run(anchor + 1)
}

// segmentWitnesses returns the people sworn in an "on the oath of" clause
func segmentWitnesses(doc *model.Document) []model.Person {
	anchor := indexOf(doc, 0, len(doc.Tokens), "oath")
	if anchor < 0 {
		return nil
	}
	limit := doc.SentenceOf(anchor).End
	return newClause(doc, anchor+1, limit, witnessStops).run(anchor + 1)
}

func (c *clause) run(from int) []model.Person {
	tokens := c.doc.Tokens
	for i := from; i < c.limit; {
		t := tokens[i]
		switch {
		case t.HasEntity(model.EntityPerson):
			// adjacent names from distinct entities are separate people
			if len(c.buf) > 0 && tokens[c.buf[len(c.buf)-1]].Span != t.Span {
				c.flush()
			}
			c.buf = append(c.buf, i)
			i++

		case inSet(c.stops, t):
			c.flush()
			return c.people

		case isCollective(c.doc, i, c.limit):
			c.flush()
			i = c.applyCollective(i + 1)

		default:
			// "," and "and" separate names; any other word ends a pending one
			i = max(i+1, c.flush())
		}
	}

	c.flush()
	return c.people
}

// flush turns the pending name into a person and scans the residence and
// occupation that follow it. It returns the index just past whatever was
// consumed, or -1 when the name was discarded.
func (c *clause) flush() int {
	buf := c.buf
	c.buf = nil
	if len(buf) < 2 {
		// a single token cannot be split into forenames and surname
		return -1
	}

	end := buf[len(buf)-1]
	residence, next := findResidence(c.doc, end+1, c.limit)
	occupation, next := findOccupation(c.doc, next, c.limit, c.truncate)
	inherited := residence == "" && c.collective != ""
	if inherited {
		residence = c.collective
	}

	forenames := make([]string, 0, len(buf)-1)
	for _, idx := range buf[:len(buf)-1] {
		forenames = append(forenames, c.doc.Tokens[idx].Text)
	}
	p := model.Person{
		Forenames:  strings.Join(forenames, " "),
		Surname:    c.doc.Tokens[end].Text,
		Residence:  residence,
		Occupation: occupation,
	}

	if name := p.FullName(); !c.seen[name] {
		c.seen[name] = true
		c.inherited[len(c.people)] = inherited
		c.people = append(c.people, p)
	}
	return next
}

// applyCollective reads the place after "all of" and gives it to everyone
// listed so far without a residence of their own, including those who had
// only fallen back to an earlier group's place. Later names fall back to it.
func (c *clause) applyCollective(of int) int {
	place, next := findResidence(c.doc, of, c.limit)
	if place == "" {
		return of + 1
	}

	c.collective = place
	for i := range c.people {
		if c.people[i].Residence == "" || c.inherited[i] {
			c.people[i].Residence = place
			c.inherited[i] = false
		}
	}
	return next
}

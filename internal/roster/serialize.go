package roster

import "strings"

// Serialize writes r back to message text. Sections keep the order they
// were parsed in; sections the text never had are added after them in
// Players, Reserve, Goalies order.
func Serialize(r Roster) string {
	out := make([]string, 0, len(r.Preamble)+len(r.Players)+len(r.Reserves)+len(r.Goalies)+3)
	out = append(out, r.Preamble...)
	for _, s := range r.sectionOrder() {
		out = append(out, s.Header())
		for i, e := range r.Entries(s) {
			out = append(out, e.Line(i+1))
		}
		out = append(out, r.tails[s]...)
	}
	return strings.Join(out, "\n")
}

func (r Roster) sectionOrder() []Section {
	order := append([]Section(nil), r.order...)
	for _, s := range canonicalOrder {
		found := false
		for _, o := range r.order {
			if o == s {
				found = true
				break
			}
		}
		if !found {
			order = append(order, s)
		}
	}
	return order
}

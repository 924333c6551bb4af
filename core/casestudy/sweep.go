package casestudy

import (
	"fmt"
	"strconv"
	"strings"
)

// SweepVar is one axis of a parameter sweep: an entity name, a short token
// used when composing scenario ids, and the values to sweep over.
type SweepVar struct {
	Name   string
	Short  string
	Values []float64
}

// AddScens derives one scenario per point of the Cartesian product of the
// sweep axes, applying each point's overrides. With nParetoPoints > 0 an
// extra axis over k_PTO_alpha_ with evenly spaced weights in [0,1] is
// appended. With removeBase the base scenario is dropped afterwards, keeping
// only the swept family.
func (cs *CaseStudy) AddScens(baseID string, axes []SweepVar, nParetoPoints int, removeBase bool) error {
	if _, ok := cs.scens[baseID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBase, baseID)
	}
	if nParetoPoints > 0 {
		axes = append(append([]SweepVar(nil), axes...), SweepVar{
			Name:   "k_PTO_alpha_",
			Short:  "a",
			Values: linspace(0, 1, nParetoPoints),
		})
	}
	if len(axes) == 0 {
		return fmt.Errorf("casestudy %s: no sweep axes given", cs.Name)
	}
	for _, ax := range axes {
		if len(ax.Values) == 0 {
			return fmt.Errorf("casestudy %s: sweep axis %s has no values", cs.Name, ax.Name)
		}
	}

	for _, point := range cartesian(axes) {
		id := cs.sweepID(axes, point)
		overrides := make(map[string]any, len(axes))
		table := make(map[string]float64, len(axes))
		var descr []string
		for i, ax := range axes {
			overrides[ax.Name] = point[i]
			table[ax.Name] = point[i]
			descr = append(descr, fmt.Sprintf("%s=%s", ax.Name, formatValue(point[i])))
		}
		sc, err := cs.AddScen(id, strings.Join(descr, ", "), "", baseID, nil)
		if err != nil {
			return err
		}
		if err := sc.UpdateParams(overrides); err != nil {
			return fmt.Errorf("scenario %s: %w", id, err)
		}
		cs.sweep[id] = table
	}

	if removeBase {
		cs.RemoveScen(baseID)
	}
	return nil
}

// cartesian enumerates the product of the axes' values, last axis fastest.
func cartesian(axes []SweepVar) [][]float64 {
	total := 1
	for _, ax := range axes {
		total *= len(ax.Values)
	}
	out := make([][]float64, 0, total)
	point := make([]float64, len(axes))
	var walk func(i int)
	walk = func(i int) {
		if i == len(axes) {
			out = append(out, append([]float64(nil), point...))
			return
		}
		for _, v := range axes[i].Values {
			point[i] = v
			walk(i + 1)
		}
	}
	walk(0)
	return out
}

// sweepID composes the scenario id from short tokens and values, falling
// back to a positional id when sanitization leaves nothing usable.
func (cs *CaseStudy) sweepID(axes []SweepVar, point []float64) string {
	tokens := make([]string, 0, len(axes))
	for i, ax := range axes {
		tok := sanitizeToken(ax.Short + formatValue(point[i]))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	id := strings.Join(tokens, "_")
	if id == "" || !validIdent(id) {
		return cs.positionalID()
	}
	if _, taken := cs.scens[id]; taken {
		return cs.positionalID()
	}
	return id
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// sanitizeToken maps a value token into identifier characters: decimal points
// become p, minus signs become m, anything else non-alphanumeric is dropped.
func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '.':
			b.WriteByte('p')
		case r == '-':
			b.WriteByte('m')
		case r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

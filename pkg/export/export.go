// Package export writes study results in exchange formats: the sweep table
// and the pareto front as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/karimcy/SEMDR/core/casestudy"
)

// ParetoPoint is one solved scenario projected onto the study's objective
// terms.
type ParetoPoint struct {
	Scenario  string             `json:"scenario"`
	Objective float64            `json:"objective"`
	Terms     map[string]float64 `json:"terms"`
	Overrides map[string]float64 `json:"overrides,omitempty"`
}

// ParetoFront collects the objective terms of every solved scenario in
// insertion order.
func ParetoFront(cs *casestudy.CaseStudy) []ParetoPoint {
	var out []ParetoPoint
	for _, sc := range cs.Scens() {
		res := sc.Res()
		if res == nil {
			continue
		}
		terms := make(map[string]float64, len(cs.ObjVars))
		for _, name := range cs.ObjVars {
			terms[name] = res.Get(name)
		}
		out = append(out, ParetoPoint{
			Scenario:  sc.ID,
			Objective: res.Objective,
			Terms:     terms,
			Overrides: cs.SweepOverrides(sc.ID),
		})
	}
	return out
}

// WriteParetoJSON writes the pareto front to w in JSON format.
func WriteParetoJSON(w io.Writer, cs *casestudy.CaseStudy) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ParetoFront(cs))
}

// WriteParetoCSV writes the pareto front to w in CSV format, one column per
// objective term.
func WriteParetoCSV(w io.Writer, cs *casestudy.CaseStudy) error {
	cw := csv.NewWriter(w)
	header := append([]string{"scenario", "objective"}, cs.ObjVars...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range ParetoFront(cs) {
		rec := []string{p.Scenario, formatFloat(p.Objective)}
		for _, name := range cs.ObjVars {
			rec = append(rec, formatFloat(p.Terms[name]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweepCSV writes the sweep override table to w: one row per swept
// scenario, one column per swept entity, columns sorted by name.
func WriteSweepCSV(w io.Writer, cs *casestudy.CaseStudy) error {
	colSet := make(map[string]struct{})
	var rows []string
	for _, id := range cs.ScenIDs() {
		ov := cs.SweepOverrides(id)
		if ov == nil {
			continue
		}
		rows = append(rows, id)
		for name := range ov {
			colSet[name] = struct{}{}
		}
	}
	cols := make([]string, 0, len(colSet))
	for name := range colSet {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"scenario"}, cols...)); err != nil {
		return err
	}
	for _, id := range rows {
		ov := cs.SweepOverrides(id)
		rec := []string{id}
		for _, name := range cols {
			rec = append(rec, formatFloat(ov[name]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

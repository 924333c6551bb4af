package casestudy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/karimcy/SEMDR/core/logger"
	"github.com/karimcy/SEMDR/core/scenario"
	"github.com/karimcy/SEMDR/core/timegrid"
)

const fileTimestamp = "2006-01-02_150405"

type caseStudyJSON struct {
	Name           string                        `json:"name"`
	Doc            string                        `json:"doc,omitempty"`
	Year           int                           `json:"year"`
	Freq           string                        `json:"freq"`
	T1             int                           `json:"t1"`
	Steps          int                           `json:"steps"`
	ConsiderInvest bool                          `json:"considerInvest"`
	ObjVars        []string                      `json:"objVars"`
	Scens          []*scenario.Scenario          `json:"scens"`
	Sweep          map[string]map[string]float64 `json:"sweep,omitempty"`
}

// Save writes the study as JSON under <resultsDir>/<name>/, named by UTC
// timestamp plus suffix so repeated saves sort chronologically. Runtime
// state that cannot survive serialization is stripped from every scenario
// first. Returns the written path.
func (cs *CaseStudy) Save(resultsDir, suffix string) (string, error) {
	for _, sc := range cs.Scens() {
		sc.StripRuntime()
	}
	doc := caseStudyJSON{
		Name:           cs.Name,
		Doc:            cs.Doc,
		Year:           cs.grid.Year(),
		Freq:           cs.grid.Freq().String(),
		T1:             cs.grid.T1(),
		Steps:          cs.grid.Steps(),
		ConsiderInvest: cs.ConsiderInvest,
		ObjVars:        cs.ObjVars,
		Scens:          cs.Scens(),
		Sweep:          cs.sweep,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("casestudy %s: marshal: %w", cs.Name, err)
	}

	dir := filepath.Join(resultsDir, cs.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("casestudy %s: %w", cs.Name, err)
	}
	name := time.Now().UTC().Format(fileTimestamp)
	if suffix != "" {
		name += "_" + suffix
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("casestudy %s: %w", cs.Name, err)
	}
	cs.log.Infof("case study saved to %s (%d scenarios)", path, len(cs.scenOrder))
	return path, nil
}

// Open loads a saved study. Scenarios get the rebuilt grid and logger
// attached; their component lists are gone, so they are inspectable but not
// re-buildable until components are re-attached.
func Open(path string, log logger.Logger) (*CaseStudy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("casestudy: open %s: %w", path, err)
	}
	var doc caseStudyJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("casestudy: decode %s: %w", path, err)
	}

	freq, err := timegrid.ParseFreq(doc.Freq)
	if err != nil {
		return nil, fmt.Errorf("casestudy: %s: %w", path, err)
	}
	cs, err := New(doc.Name, doc.Doc, doc.Year, freq, doc.ConsiderInvest, log)
	if err != nil {
		return nil, err
	}
	if err := cs.grid.SetWindowSteps(timegrid.At(doc.T1), doc.Steps); err != nil {
		return nil, fmt.Errorf("casestudy: %s: %w", path, err)
	}
	if len(doc.ObjVars) > 0 {
		cs.ObjVars = doc.ObjVars
	}
	if doc.Sweep != nil {
		cs.sweep = doc.Sweep
	}
	for _, sc := range doc.Scens {
		sc.AttachRuntime(cs.grid, cs.log, nil)
		cs.scens[sc.ID] = sc
		cs.scenOrder = append(cs.scenOrder, sc.ID)
	}
	return cs, nil
}

// OpenLatest loads the lexically last saved file of a named study, which by
// the timestamp naming is the most recent one.
func OpenLatest(resultsDir, name string, log logger.Logger) (*CaseStudy, error) {
	dir := filepath.Join(resultsDir, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("casestudy: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("casestudy: no saved files under %s", dir)
	}
	sort.Strings(files)
	return Open(filepath.Join(dir, files[len(files)-1]), log)
}

package collector

import (
	"errors"
	"testing"

	"github.com/karimcy/SEMDR/core/lpmodel"
)

func TestDeclareAndDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Declare("P_EL_source_T", "sources", "kW"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := r.Declare("P_EL_source_T", "again", "kW"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if !r.Has("P_EL_source_T") || r.Has("missing") {
		t.Fatalf("Has is wrong")
	}
}

func TestContributeAndSum(t *testing.T) {
	r := NewRegistry()
	if err := r.Declare("P_EL_source_T", "", ""); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := r.Contribute("P_EL_source_T", "pv", func(t int) lpmodel.Expr {
		return lpmodel.Constant(float64(t))
	}); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if err := r.Contribute("P_EL_source_T", "grid", func(t int) lpmodel.Expr {
		return lpmodel.Constant(10)
	}); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	sum, err := r.Sum("P_EL_source_T", 3)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if got := sum.Eval(nil); got != 13 {
		t.Fatalf("sum at t=3 = %v, want 13", got)
	}
}

func TestContributeOverwritesSameID(t *testing.T) {
	r := NewRegistry()
	_ = r.Declare("C_TOT_op_", "", "")
	_ = r.Contribute("C_TOT_op_", "pv", func(int) lpmodel.Expr { return lpmodel.Constant(1) })
	_ = r.Contribute("C_TOT_op_", "pv", func(int) lpmodel.Expr { return lpmodel.Constant(2) })
	sum, err := r.Sum("C_TOT_op_", 0)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if got := sum.Eval(nil); got != 2 {
		t.Fatalf("overwrite not applied, sum = %v", got)
	}
}

func TestContributeUnknown(t *testing.T) {
	r := NewRegistry()
	err := r.Contribute("nope", "pv", func(int) lpmodel.Expr { return lpmodel.Expr{} })
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
	if _, err := r.Sum("nope", 0); !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestDimContributions(t *testing.T) {
	r := NewRegistry()
	if err := r.DeclareDim("dQ_heating_source_TH", "H", "", "kW_th"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	_ = r.ContributeDim("dQ_heating_source_TH", "hvac", func(t int, key string) lpmodel.Expr {
		if key != "22/18" {
			return lpmodel.Expr{}
		}
		return lpmodel.Constant(7)
	})
	sum, err := r.SumDim("dQ_heating_source_TH", 0, "22/18")
	if err != nil {
		t.Fatalf("sumdim: %v", err)
	}
	if got := sum.Eval(nil); got != 7 {
		t.Fatalf("dim sum = %v, want 7", got)
	}
	other, _ := r.SumDim("dQ_heating_source_TH", 0, "35/28")
	if got := other.Eval(nil); got != 0 {
		t.Fatalf("unmatched key sum = %v, want 0", got)
	}
}

func TestClearAndDeleteAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Declare("P_EL_source_T", "", "")
	_ = r.Contribute("P_EL_source_T", "pv", func(int) lpmodel.Expr { return lpmodel.Constant(1) })
	if err := r.Clear("P_EL_source_T"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sum, _ := r.Sum("P_EL_source_T", 0)
	if got := sum.Eval(nil); got != 0 {
		t.Fatalf("cleared sum = %v, want 0", got)
	}
	if !r.Has("P_EL_source_T") {
		t.Fatalf("clear must keep the declaration")
	}
	r.DeleteAll()
	if len(r.Names()) != 0 {
		t.Fatalf("DeleteAll left %v", r.Names())
	}
}

func TestStructuralCopy(t *testing.T) {
	r := NewRegistry()
	_ = r.Declare("P_EL_source_T", "sources", "kW")
	_ = r.Contribute("P_EL_source_T", "pv", func(int) lpmodel.Expr { return lpmodel.Constant(1) })
	cp := r.StructuralCopy()
	if !cp.Has("P_EL_source_T") {
		t.Fatalf("structural copy lost the declaration")
	}
	sum, err := cp.Sum("P_EL_source_T", 0)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if got := sum.Eval(nil); got != 0 {
		t.Fatalf("structural copy carried contributions, sum = %v", got)
	}
}

package domain

import "testing"

func TestDefaultVectorNamer(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"Sea Water X Velocity", "Sea Water Y Velocity"}, "Sea Water Velocity"},
		{[]string{"Eastward Wind", "Northward Wind"}, "Wind"},
		{[]string{"Zonal Current"}, "Current"},
		{[]string{"X"}, "X"},
	}
	for _, tt := range tests {
		got, err := DefaultVectorNamer{}.VectorName(tt.in)
		if err != nil {
			t.Fatalf("VectorName(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("VectorName(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExprNamer(t *testing.T) {
	n, err := NewExprNamer(`replace(name, "Eastward ", "") + " Speed"`)
	if err != nil {
		t.Fatalf("NewExprNamer: %v", err)
	}
	got, err := n.VectorName([]string{"Eastward Current", "Northward Current"})
	if err != nil {
		t.Fatalf("VectorName: %v", err)
	}
	if got != "Current Speed" {
		t.Errorf("VectorName = %q, want %q", got, "Current Speed")
	}

	pair, err := NewExprNamer(`name + "/" + names[1]`)
	if err != nil {
		t.Fatalf("NewExprNamer pair: %v", err)
	}
	got, err = pair.VectorName([]string{"u", "v"})
	if err != nil {
		t.Fatalf("VectorName pair: %v", err)
	}
	if got != "u/v" {
		t.Errorf("VectorName = %q", got)
	}
}

func TestExprNamer_Invalid(t *testing.T) {
	if _, err := NewExprNamer(`name +`); err == nil {
		t.Fatal("expected compile error")
	}
	n, err := NewExprNamer(`len(names)`)
	if err != nil {
		t.Fatalf("NewExprNamer: %v", err)
	}
	if _, err := n.VectorName([]string{"a"}); err == nil {
		t.Fatal("expected non-string result to fail")
	}
}

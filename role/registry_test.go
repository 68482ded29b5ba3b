package role

import (
	"errors"
	"sync"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Декан ", "декан"},
		{"ЗАМЕСТИТЕЛЬ   ДЕКАНА", "заместитель декана"},
		{"\tСтудент\n", "студент"},
		{"Преподаватель (Лектор)", "преподаватель (лектор)"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDefaultRegistryClassify(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		raw     string
		kind    Kind
		variant Variant
	}{
		{"декан", Dean, VariantNone},
		{"  Декан ", Dean, VariantNone},
		{"Заместитель декана", ViceDean, VariantNone},
		{"студент", Student, VariantNone},
		{"преподаватель (лектор)", Teacher, VariantLecturer},
		{"Преподаватель (практик)", Teacher, VariantPractice},
		{"старший преподаватель", Teacher, VariantOther},
		{"преподаватель", Teacher, VariantOther},
	}

	for _, tt := range tests {
		kind, variant, err := r.Classify(tt.raw)
		if err != nil {
			t.Fatalf("Classify(%q) unexpected error: %v", tt.raw, err)
		}
		if kind != tt.kind {
			t.Fatalf("Classify(%q) kind = %v, want %v", tt.raw, kind, tt.kind)
		}
		if variant != tt.variant {
			t.Fatalf("Classify(%q) variant = %v, want %v", tt.raw, variant, tt.variant)
		}
	}
}

func TestClassifyUnknownRole(t *testing.T) {
	r := DefaultRegistry()

	for _, raw := range []string{"", "   ", "ректор", "admin", "деканат"} {
		kind, _, err := r.Classify(raw)
		if !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("Classify(%q) expected ErrUnknownRole, got %v", raw, err)
		}
		if kind != Unknown {
			t.Fatalf("Classify(%q) kind = %v, want Unknown", raw, kind)
		}
	}
}

func TestRegistryFrozenRejectsRegistration(t *testing.T) {
	r := DefaultRegistry()
	if err := r.Register("ректор", Dean); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
	if err := r.RegisterContains("ректор", Dean); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
}

func TestRegistryCustomRules(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("Ректор", Dean); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("ректор", Dean); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := r.Register("x", Unknown); err == nil {
		t.Fatal("expected Unknown kind registration to fail")
	}
	if err := r.RegisterContains("магистрант", Student); err != nil {
		t.Fatalf("register contains: %v", err)
	}

	kind, _, err := r.Classify("  РЕКТОР")
	if err != nil || kind != Dean {
		t.Fatalf("expected Dean, got %v (%v)", kind, err)
	}
	kind, _, err = r.Classify("магистрант 2 курса")
	if err != nil || kind != Student {
		t.Fatalf("expected Student, got %v (%v)", kind, err)
	}
	if r.Count() != 2 {
		t.Fatalf("expected 2 rules, got %d", r.Count())
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range []Kind{Dean, ViceDean, Teacher, Student} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("rector"); ok {
		t.Fatal("expected unknown kind name to fail")
	}
}

func TestClassifyConcurrentSafe(t *testing.T) {
	r := DefaultRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if kind, _, err := r.Classify(" Студент "); err != nil || kind != Student {
					t.Errorf("unexpected classification %v (%v)", kind, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

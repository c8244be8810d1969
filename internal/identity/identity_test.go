package identity

import "testing"

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   MethodID
		want string
	}{
		{
			name: "no params",
			id:   New("com.example.PaymentRepository", "flush", nil),
			want: "com.example.PaymentRepository#flush()",
		},
		{
			name: "single param",
			id:   New("com.example.PaymentRepository", "save", []string{"Payment"}),
			want: "com.example.PaymentRepository#save(Payment)",
		},
		{
			name: "overload with two params",
			id:   New("com.example.OrderService", "update", []string{"String", "int"}),
			want: "com.example.OrderService#update(String,int)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.id.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			parsed, ok := Parse(got)
			if !ok {
				t.Fatalf("Parse(%q) failed", got)
			}
			if parsed != tt.id {
				t.Errorf("Parse(%q) = %+v, want %+v", got, parsed, tt.id)
			}
		})
	}
}

func TestOverloadsAreDistinct(t *testing.T) {
	a := New("com.example.Repo", "save", []string{"Payment"})
	b := New("com.example.Repo", "save", []string{"Order"})
	if a == b {
		t.Error("overloads with different signatures must not compare equal")
	}

	set := map[MethodID]bool{a: true, b: true}
	if len(set) != 2 {
		t.Errorf("expected 2 distinct map keys, got %d", len(set))
	}
}

func TestShortName(t *testing.T) {
	id := New("com.example.DeadlockDemoService", "batchProcess", []string{"List"})
	if got := id.ShortName(); got != "DeadlockDemoService.batchProcess" {
		t.Errorf("ShortName() = %q", got)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "noDelimiters", "Owner#name", "Owner(name)"} {
		if _, ok := Parse(s); ok {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

package money

import "testing"

func TestMustPositive(t *testing.T) {
	cases := []struct {
		name string
		amt  Money
		want bool
	}{
		{"positive", New(150.75, "USD"), true},
		{"zero", New(0, "USD"), false},
		{"negative", New(-5, "USD"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.amt.MustPositive()
			got := err == nil
			if got != c.want {
				t.Fatalf("MustPositive() = %v, want %v", err, c.want)
			}
		})
	}
}

func TestAddSub(t *testing.T) {
	a := New(150.75, "USD")
	b := New(75.50, "USD")

	sum := a.Add(b)
	if got, want := sum.String(), "226.25"; got != want {
		t.Fatalf("Add() = %s, want %s", got, want)
	}

	diff := a.Sub(b)
	if got, want := diff.String(), "75.25"; got != want {
		t.Fatalf("Sub() = %s, want %s", got, want)
	}
}

func TestNewFromStringRejectsGarbage(t *testing.T) {
	if _, err := NewFromString("not-a-number", "USD"); err == nil {
		t.Fatal("expected error for malformed amount string")
	}
}

func TestNewFromStringRounds(t *testing.T) {
	m, err := NewFromString("10.005", "USD")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	if got, want := m.String(), "10.01"; got != want {
		t.Fatalf("String() = %s, want %s", got, want)
	}
}

func TestMarshalUnmarshalJSON(t *testing.T) {
	m := New(150.75, "USD")
	b, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `"150.75"`; got != want {
		t.Fatalf("MarshalJSON() = %s, want %s", got, want)
	}

	var roundtrip Money
	if err := roundtrip.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON(string): %v", err)
	}
	if !roundtrip.Equal(m) {
		t.Fatalf("UnmarshalJSON round-trip = %s, want %s", roundtrip, m)
	}

	var fromNumber Money
	if err := fromNumber.UnmarshalJSON([]byte("150.75")); err != nil {
		t.Fatalf("UnmarshalJSON(number): %v", err)
	}
	if !fromNumber.Equal(m) {
		t.Fatalf("UnmarshalJSON(number) = %s, want %s", fromNumber, m)
	}
}

func TestComparisons(t *testing.T) {
	low := New(10, "USD")
	high := New(20, "USD")

	if !high.GreaterThan(low) {
		t.Fatal("expected 20 > 10")
	}
	if !low.LessThan(high) {
		t.Fatal("expected 10 < 20")
	}
	if !low.Equal(New(10, "USD")) {
		t.Fatal("expected 10 == 10")
	}
}

package feed

import (
	"testing"
	"time"
)

func TestMaskPhone(t *testing.T) {
	cases := map[string]string{
		"9876543210": "9876XXXX10",
		"9910123488": "9910XXXX88",
		"123":        "XXX",
	}
	for in, want := range cases {
		if got := MaskPhone(in); got != want {
			t.Errorf("MaskPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{65 * time.Minute, "1h 5m"},
		{2 * time.Hour, "2h 0m"},
		{59 * time.Second, "0h 0m"},
		{-time.Second, ExpiredLabel},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.d); got != tc.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestRefsAndRegion(t *testing.T) {
	id := "3f2a9b10-1c2d-4e5f-8a9b-0c1d9c41d7e2"
	if got := RefID(id); got != "L-3F2A9" {
		t.Errorf("RefID = %q", got)
	}
	if got := RefNo(id); got != "#9C41D7E2" {
		t.Errorf("RefNo = %q", got)
	}
	if got := Region("Sector 18, Noida , Uttar Pradesh"); got != "Uttar Pradesh" {
		t.Errorf("Region = %q", got)
	}
	if got := Region("Delhi"); got != "Delhi" {
		t.Errorf("Region = %q", got)
	}
}

func TestConversionPotential(t *testing.T) {
	if got := ConversionPotential(3, 8); got != "37.5%" {
		t.Errorf("got %q", got)
	}
	if got := ConversionPotential(2, 0); got != "0.0%" {
		t.Errorf("got %q", got)
	}
}

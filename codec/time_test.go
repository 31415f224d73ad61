package codec

import (
	"testing"
	"time"
)

func TestParseTime_Layouts(t *testing.T) {
	want := time.Date(2020, 5, 25, 23, 35, 47, 745731000, time.UTC)
	for _, in := range []string{
		"2020-05-25T23:35:47.745731Z",
		"2020-05-25 23:35:47.745731Z",
		"2020-05-25T23:35:47.745731",
		"2020-05-25 23:35:47.745731+00:00",
		"2020-05-25T23:35:47.745731+0000",
	} {
		got, err := ParseTime(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestParseTime_NaiveIsUTC(t *testing.T) {
	got, err := ParseTime("2020-01-01T10:00:00")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
}

func TestParseTime_KeepsOffset(t *testing.T) {
	got, err := ParseTime("2020-01-01T10:00:00+10:00")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !got.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant: %v", got)
	}
	if FormatTime(got) != "2020-01-01T00:00:00Z" {
		t.Fatalf("unexpected canonical form: %s", FormatTime(got))
	}
}

func TestParseTime_Invalid(t *testing.T) {
	if _, err := ParseTime("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ParseTime(42); err == nil {
		t.Fatalf("expected error for non-string")
	}
}

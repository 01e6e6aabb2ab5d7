package domain_test

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"skirmish/game/domain"
)

func TestPositionRoundTrip(t *testing.T) {
	msg := domain.EncodePosition(domain.FacingLeft, 120, -40)
	if msg != "pos left 120 -40" {
		t.Errorf("EncodePosition = %q, want %q", msg, "pos left 120 -40")
	}

	got, err := domain.ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if got.Kind != domain.MessagePosition {
		t.Errorf("Kind = %s, want %s", got.Kind, domain.MessagePosition)
	}
	want := domain.Position{Facing: domain.FacingLeft, X: 120, Y: -40}
	if got.Position != want {
		t.Errorf("Position = %+v, want %+v", got.Position, want)
	}
}

func TestFinishedRoundTrip(t *testing.T) {
	got, err := domain.ParseMessage(domain.EncodeFinished(1250))
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if got.Kind != domain.MessageFinished || got.Score != 1250 {
		t.Errorf("got %+v, want finished 1250", got)
	}
}

func TestStartRoundTrip(t *testing.T) {
	msg := domain.EncodeStart(90*time.Second, "forest.lvl")
	if msg != "start 90000 forest.lvl" {
		t.Errorf("EncodeStart = %q", msg)
	}
	got, err := domain.ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	want := domain.Start{TimeLimit: 90 * time.Second, Level: "forest.lvl"}
	if got.Start != want {
		t.Errorf("Start = %+v, want %+v", got.Start, want)
	}
}

func TestParseStart_LevelWithSpaces(t *testing.T) {
	got, err := domain.ParseMessage(domain.EncodeStart(time.Minute, "dark forest.lvl"))
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if got.Start.Level != "dark forest.lvl" {
		t.Errorf("Start.Level = %q, want %q", got.Start.Level, "dark forest.lvl")
	}
}

func TestParseMessage_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", domain.ErrUnknownMessage},
		{"ready", domain.ErrUnknownMessage},
		{"hello 1 2", domain.ErrUnknownMessage},
		{"pos left 1", domain.ErrMalformedMessage},
		{"pos sideways 1 2", domain.ErrMalformedMessage},
		{"pos left x 2", domain.ErrMalformedMessage},
		{"pos left 1 2.5", domain.ErrMalformedMessage},
		{"finished", domain.ErrMalformedMessage},
		{"finished lots", domain.ErrMalformedMessage},
		{"start 1000", domain.ErrMalformedMessage},
		{"start -5 map", domain.ErrMalformedMessage},
		{"start 0 arena", domain.ErrMalformedMessage},
	}
	for _, tt := range tests {
		_, err := domain.ParseMessage(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("ParseMessage(%q) err = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestPositionRoundTrip_Property(t *testing.T) {
	facings := []domain.Facing{
		domain.FacingDown, domain.FacingUp, domain.FacingLeft,
		domain.FacingRight, domain.FacingUpLeft, domain.FacingUpRight,
	}
	rapid.Check(t, func(t *rapid.T) {
		want := domain.Position{
			Facing: rapid.SampledFrom(facings).Draw(t, "facing"),
			X:      rapid.IntRange(-1<<20, 1<<20).Draw(t, "x"),
			Y:      rapid.IntRange(-1<<20, 1<<20).Draw(t, "y"),
		}
		got, err := domain.ParseMessage(domain.EncodePosition(want.Facing, want.X, want.Y))
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}
		if got.Position != want {
			t.Fatalf("Position = %+v, want %+v", got.Position, want)
		}
	})
}

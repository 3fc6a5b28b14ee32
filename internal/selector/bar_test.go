package selector

import (
	"testing"

	"github.com/amana-transportation/fleetview/models"
)

func TestBuildControlsInSourceOrder(t *testing.T) {
	buses := []models.BusRecord{
		{ID: "Bus 2", Status: models.StatusInactive},
		{ID: "Bus 1", Status: models.StatusActive, Passengers: 25},
		{ID: "Bus 3", Status: models.StatusActive, Passengers: 18},
	}
	bar := Build(buses, "Bus 1", false)

	if len(bar.Controls) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(bar.Controls))
	}
	for i, want := range []string{"Bus 2", "Bus 1", "Bus 3"} {
		if bar.Controls[i].BusID != want || bar.Controls[i].Label != want {
			t.Errorf("control %d = %+v, want %s", i, bar.Controls[i], want)
		}
	}
	if id, ok := bar.Selected(); !ok || id != "Bus 1" {
		t.Errorf("Selected() = %q, %v", id, ok)
	}
	if bar.Controls[1].Passengers != 25 || bar.Loading != "" {
		t.Errorf("unexpected control %+v loading %q", bar.Controls[1], bar.Loading)
	}
}

func TestBuildNoSelection(t *testing.T) {
	bar := Build([]models.BusRecord{{ID: "Bus 1"}}, "", false)
	if _, ok := bar.Selected(); ok {
		t.Error("expected no selected control")
	}
}

func TestBuildEmpty(t *testing.T) {
	bar := Build(nil, "", false)
	if bar.Controls == nil || len(bar.Controls) != 0 {
		t.Errorf("expected empty non-nil controls, got %#v", bar.Controls)
	}
}

func TestBuildLoading(t *testing.T) {
	bar := Build(nil, "", true)
	if bar.Loading != LoadingMessage {
		t.Errorf("Loading = %q", bar.Loading)
	}
}

func TestClick(t *testing.T) {
	bar := Build([]models.BusRecord{{ID: "Bus 1"}, {ID: "Bus 2"}}, "", false)
	if id, ok := bar.Click("Bus 2"); !ok || id != "Bus 2" {
		t.Errorf("Click(Bus 2) = %q, %v", id, ok)
	}
	if _, ok := bar.Click("Bus 9"); ok {
		t.Error("unknown bus should be rejected")
	}
}

package feed

import (
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/amana-transportation/fleetview/models"
)

func fleet() []models.BusRecord {
	return []models.BusRecord{
		{
			ID:       "Bus 1",
			Status:   models.StatusActive,
			NextStop: "Tuba Stop",
			Stops: []models.Stop{
				{Name: "Jerash Stop", ArrivalTime: "09:40", Coords: models.LatLng{Lat: 31.95, Lng: 35.91}},
				{Name: "Tuba Stop", ArrivalTime: "10:20 AM", Coords: models.LatLng{Lat: 31.96, Lng: 35.88}},
				{Name: "Rum Stop", ArrivalTime: "soon", Coords: models.LatLng{Lat: 31.99, Lng: 35.81}},
			},
		},
		{ID: "Bus 2", Status: models.StatusInactive},
		{
			ID: "Bus 3",
			Stops: []models.Stop{
				{Name: "Amman City", ArrivalTime: "09:20", Coords: models.LatLng{Lat: 31.93, Lng: 35.94}},
				{Name: "North Gate", ArrivalTime: "10:45", Coords: models.LatLng{Lat: 31.99, Lng: 35.90}, IsCurrent: true},
			},
		},
	}
}

func TestBuildFeed(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	msg := Build(fleet(), at)

	if msg.GetHeader().GetGtfsRealtimeVersion() != "2.0" || msg.GetHeader().GetTimestamp() != uint64(at.Unix()) {
		t.Errorf("unexpected header %v", msg.GetHeader())
	}
	// Bus 2 has no stops
	if len(msg.GetEntity()) != 4 {
		t.Fatalf("expected 4 entities, got %d", len(msg.GetEntity()))
	}

	vp := msg.GetEntity()[0].GetVehicle()
	if msg.GetEntity()[0].GetId() != "vehicle:Bus_1" || vp.GetVehicle().GetId() != "Bus 1" {
		t.Errorf("unexpected vehicle entity %v", msg.GetEntity()[0])
	}
	if vp.GetStopId() != "Tuba Stop" || vp.GetCurrentStatus() != gtfs.VehiclePosition_IN_TRANSIT_TO || vp.GetCurrentStopSequence() != 2 {
		t.Errorf("Bus 1 should be in transit to Tuba Stop, got %v", vp)
	}

	tu := msg.GetEntity()[1].GetTripUpdate()
	updates := tu.GetStopTimeUpdate()
	if len(updates) != 3 {
		t.Fatalf("expected 3 stop time updates, got %d", len(updates))
	}
	if got := updates[0].GetArrival().GetTime(); got != time.Date(2026, 3, 1, 9, 40, 0, 0, time.UTC).Unix() {
		t.Errorf("first arrival = %d", got)
	}
	if got := updates[1].GetArrival().GetTime(); got != time.Date(2026, 3, 1, 10, 20, 0, 0, time.UTC).Unix() {
		t.Errorf("12-hour arrival = %d", got)
	}
	if updates[2].GetArrival() != nil {
		t.Error("unparseable arrival should be omitted")
	}

	current := msg.GetEntity()[2].GetVehicle()
	if current.GetStopId() != "North Gate" || current.GetCurrentStatus() != gtfs.VehiclePosition_STOPPED_AT {
		t.Errorf("Bus 3 should be stopped at North Gate, got %v", current)
	}
}

func TestMarshalDecodes(t *testing.T) {
	data, err := Marshal(fleet(), time.Unix(1_772_000_000, 0).UTC())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var msg gtfs.FeedMessage
	if err := proto.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(msg.GetEntity()) != 4 {
		t.Errorf("decoded %d entities", len(msg.GetEntity()))
	}
}

func TestEmptyFleet(t *testing.T) {
	msg := Build(nil, time.Now())
	if len(msg.GetEntity()) != 0 || msg.GetHeader() == nil {
		t.Errorf("unexpected feed %v", msg)
	}
}

// Package feed exports a fleet snapshot as a GTFS-Realtime feed so
// standard transit tooling can read what the dashboard shows.
package feed

import (
	"fmt"
	"strings"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/amana-transportation/fleetview/models"
)

const gtfsRealtimeVersion = "2.0"

// clock layouts seen in upstream arrival times
var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM", "15:04:05"}

// Build converts buses into a full-dataset feed: one VehiclePosition and
// one TripUpdate entity per bus that has stops. Arrival clock times are
// resolved against the service day of at.
func Build(buses []models.BusRecord, at time.Time) *gtfs.FeedMessage {
	msg := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(at.Unix())),
		},
	}

	for _, b := range buses {
		if len(b.Stops) == 0 {
			continue
		}
		key := entityKey(b.ID)
		trip := &gtfs.TripDescriptor{
			TripId:  proto.String(b.ID),
			RouteId: proto.String(b.ID),
		}

		msg.Entity = append(msg.Entity,
			&gtfs.FeedEntity{
				Id:      proto.String("vehicle:" + key),
				Vehicle: vehiclePosition(b, trip, at),
			},
			&gtfs.FeedEntity{
				Id:         proto.String("trip:" + key),
				TripUpdate: tripUpdate(b, trip, at),
			},
		)
	}
	return msg
}

// Marshal builds the feed and encodes it as protobuf
func Marshal(buses []models.BusRecord, at time.Time) ([]byte, error) {
	b, err := proto.Marshal(Build(buses, at))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feed: %w", err)
	}
	return b, nil
}

func vehiclePosition(b models.BusRecord, trip *gtfs.TripDescriptor, at time.Time) *gtfs.VehiclePosition {
	idx, status := positionStop(b)
	stop := b.Stops[idx]

	return &gtfs.VehiclePosition{
		Trip: trip,
		Vehicle: &gtfs.VehicleDescriptor{
			Id:    proto.String(b.ID),
			Label: proto.String(b.ID),
		},
		Position: &gtfs.Position{
			Latitude:  proto.Float32(float32(stop.Coords.Lat)),
			Longitude: proto.Float32(float32(stop.Coords.Lng)),
		},
		CurrentStopSequence: proto.Uint32(uint32(idx + 1)),
		StopId:              proto.String(stop.Name),
		CurrentStatus:       status.Enum(),
		Timestamp:           proto.Uint64(uint64(at.Unix())),
	}
}

// positionStop picks where to place the vehicle: the stop flagged current,
// else the declared next stop, else the first stop.
func positionStop(b models.BusRecord) (int, gtfs.VehiclePosition_VehicleStopStatus) {
	for i, s := range b.Stops {
		if s.IsCurrent {
			return i, gtfs.VehiclePosition_STOPPED_AT
		}
	}
	for i, s := range b.Stops {
		if s.Name == b.NextStop {
			return i, gtfs.VehiclePosition_IN_TRANSIT_TO
		}
	}
	return 0, gtfs.VehiclePosition_IN_TRANSIT_TO
}

func tripUpdate(b models.BusRecord, trip *gtfs.TripDescriptor, at time.Time) *gtfs.TripUpdate {
	tu := &gtfs.TripUpdate{
		Trip:      trip,
		Vehicle:   &gtfs.VehicleDescriptor{Id: proto.String(b.ID)},
		Timestamp: proto.Uint64(uint64(at.Unix())),
	}
	for i, s := range b.Stops {
		stu := &gtfs.TripUpdate_StopTimeUpdate{
			StopSequence: proto.Uint32(uint32(i + 1)),
			StopId:       proto.String(s.Name),
		}
		if t, ok := clockTime(s.ArrivalTime, at); ok {
			stu.Arrival = &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(t.Unix())}
		}
		tu.StopTimeUpdate = append(tu.StopTimeUpdate, stu)
	}
	return tu
}

// clockTime places a wall-clock string on the service day of at
func clockTime(s string, at time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := at.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, at.Location()), true
	}
	return time.Time{}, false
}

func entityKey(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), " ", "_")
}

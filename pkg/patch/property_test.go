package patch

import (
	"testing"

	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genSignalType() gopter.Gen {
	all := signal.All()
	vals := make([]interface{}, len(all))
	for i, s := range all {
		vals[i] = s
	}
	return gen.OneConstOf(vals...)
}

// TestConnectionInvariants verifies properties that must hold for any
// port pair the validator can be handed.
func TestConnectionInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property 1: the validator never accepts a pair the registry rejects.
	properties.Property("validator agrees with registry table", prop.ForAll(
		func(src, dst signal.Type) bool {
			res := ValidateConnection(
				Port{ID: "o", Name: "o", Direction: Output, Signal: src},
				Port{ID: "i", Name: "i", Direction: Input, Signal: dst},
			)
			return res.Valid == signal.CanDrive(src, dst)
		},
		genSignalType(),
		genSignalType(),
	))

	// Property 2: a rejected connection always carries a message.
	properties.Property("invalid results carry a reason", prop.ForAll(
		func(src, dst signal.Type) bool {
			res := ValidateConnection(
				Port{ID: "o", Name: "o", Direction: Output, Signal: src},
				Port{ID: "i", Name: "i", Direction: Input, Signal: dst},
			)
			return res.Valid || res.Message != ""
		},
		genSignalType(),
		genSignalType(),
	))

	// Property 3: warnings only occur on valid results.
	properties.Property("warning implies valid", prop.ForAll(
		func(src, dst signal.Type) bool {
			res := ValidateConnection(
				Port{ID: "o", Name: "o", Direction: Output, Signal: src},
				Port{ID: "i", Name: "i", Direction: Input, Signal: dst},
			)
			return !res.Warning || res.Valid
		},
		genSignalType(),
		genSignalType(),
	))

	properties.TestingRun(t)
}

// TestStoreInvariants verifies the store keeps its indexes consistent
// through arbitrary add/delete sequences.
func TestStoreInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	// Property 1: deleting a device leaves no cable referencing it.
	properties.Property("cascade delete leaves no dangling cables", prop.ForAll(
		func(names []string) bool {
			store := NewStore()
			ids := make([]string, 0, len(names))
			for _, name := range names {
				d, err := store.AddDevice(testDevice(name))
				if err != nil {
					return false
				}
				ids = append(ids, d.ID)
			}
			// Chain every consecutive pair
			for i := 1; i < len(ids); i++ {
				if _, err := store.AddCable(Cable{
					SourceDeviceID: ids[i-1], SourcePortID: "out",
					TargetDeviceID: ids[i], TargetPortID: "in",
				}); err != nil {
					return false
				}
			}
			if len(ids) == 0 {
				return true
			}
			victim := ids[len(ids)/2]
			if err := store.DeleteDevice(victim); err != nil {
				return false
			}
			for _, c := range store.Cables() {
				if c.SourceDeviceID == victim || c.TargetDeviceID == victim {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	// Property 2: statistics match the listed collections.
	properties.Property("statistics agree with listings", prop.ForAll(
		func(n uint8) bool {
			store := NewStore()
			count := int(n % 16)
			for i := 0; i < count; i++ {
				if _, err := store.AddDevice(testDevice("d")); err != nil {
					return false
				}
			}
			stats := store.GetStatistics()
			return stats.DeviceCount == len(store.Devices()) &&
				stats.CableCount == len(store.Cables())
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

package growbox

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/openkairo/growdeck/internal/hass"
)

// Domain is the integration domain tag that marks chamber devices and
// their config entries.
const Domain = "growdeck"

// Source is the registry/config surface BuildViewModels consumes.
// *hass.Client satisfies it.
type Source interface {
	ListDevices(ctx context.Context) ([]hass.Device, error)
	ListEntities(ctx context.Context) ([]hass.Entity, error)
	ListConfigEntries(ctx context.Context, domain string) ([]hass.ConfigEntry, error)
	GetConfig(ctx context.Context, entryID string) (map[string]any, error)
}

// EntityRefs are the per-chamber entity ids resolved from the entity
// registry by unique-id suffix. Absent entities stay empty.
type EntityRefs struct {
	Phase  string
	Master string
	VPD    string
	Pump   string
	Days   string
}

// refSuffixes maps unique-id suffixes to their EntityRefs slot.
// The first registry entity matching a suffix wins. Longer suffixes
// come first so "_days_in_phase" never lands in the "_phase" slot.
var refSuffixes = []struct {
	suffix string
	slot   func(*EntityRefs) *string
}{
	{"_days_in_phase", func(r *EntityRefs) *string { return &r.Days }},
	{"_master_switch", func(r *EntityRefs) *string { return &r.Master }},
	{"_water_pump", func(r *EntityRefs) *string { return &r.Pump }},
	{"_phase", func(r *EntityRefs) *string { return &r.Phase }},
	{"_vpd", func(r *EntityRefs) *string { return &r.VPD }},
}

// ViewModel is the joined per-chamber record the panel renders from.
// It is rebuilt wholesale on every fetch cycle; only the option map is
// patched locally between cycles (after a save or upload).
type ViewModel struct {
	DeviceID string
	Name     string
	EntryID  string
	Options  Options
	Refs     EntityRefs
}

// Phase returns the committed growth phase.
func (vm *ViewModel) Phase() Phase {
	return vm.Options.Phase()
}

// LightEntity returns the configured light relay entity id.
func (vm *ViewModel) LightEntity() string { return vm.Options.String(OptLightEntity, "") }

// FanEntity returns the configured exhaust fan entity id.
func (vm *ViewModel) FanEntity() string { return vm.Options.String(OptFanEntity, "") }

// CameraEntity returns the configured camera entity id.
func (vm *ViewModel) CameraEntity() string { return vm.Options.String(OptCameraEntity, "") }

// TempSensor returns the configured temperature sensor entity id.
func (vm *ViewModel) TempSensor() string { return vm.Options.String(OptTempSensor, "") }

// HumiditySensor returns the configured humidity sensor entity id.
func (vm *ViewModel) HumiditySensor() string { return vm.Options.String(OptHumiditySensor, "") }

// MoistureSensor returns the configured soil moisture sensor entity id.
func (vm *ViewModel) MoistureSensor() string { return vm.Options.String(OptMoistureSensor, "") }

// TrackedEntities returns every non-empty entity id the chamber watches,
// for logbook queries.
func (vm *ViewModel) TrackedEntities() []string {
	candidates := []string{
		vm.Refs.Phase, vm.Refs.Master, vm.Refs.VPD, vm.Refs.Pump, vm.Refs.Days,
		vm.LightEntity(), vm.FanEntity(), vm.TempSensor(), vm.HumiditySensor(),
		vm.MoistureSensor(), vm.Options.String(OptPumpEntity, ""),
	}
	seen := make(map[string]bool, len(candidates))
	var ids []string
	for _, id := range candidates {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// BuildViewModels joins the device registry, entity registry, and config
// entries into one view model per chamber, then fetches each entry's
// option map concurrently. A failed option fetch degrades that chamber
// to empty options; it never fails the batch. Zero chambers is a valid
// result.
func BuildViewModels(ctx context.Context, src Source, log *zap.Logger) ([]*ViewModel, error) {
	devices, err := src.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	entities, err := src.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := src.ListConfigEntries(ctx, Domain)
	if err != nil {
		return nil, err
	}

	entryByID := make(map[string]hass.ConfigEntry, len(entries))
	for _, e := range entries {
		entryByID[e.EntryID] = e
	}

	entitiesByDevice := make(map[string][]hass.Entity, len(devices))
	for _, e := range entities {
		if e.DeviceID != "" {
			entitiesByDevice[e.DeviceID] = append(entitiesByDevice[e.DeviceID], e)
		}
	}

	vms := make([]*ViewModel, 0, len(devices))
	for _, dev := range devices {
		if !dev.HasDomain(Domain) {
			continue
		}

		entryID := dev.PrimaryConfigEntry
		if _, ok := entryByID[entryID]; !ok {
			// Primary entry belongs to another integration; fall back
			// to the first entry of ours attached to the device.
			entryID = ""
			for _, candidate := range dev.ConfigEntries {
				if _, ok := entryByID[candidate]; ok {
					entryID = candidate
					break
				}
			}
		}
		if entryID == "" {
			log.Warn("Chamber device has no usable config entry",
				zap.String("device_id", dev.ID))
			continue
		}

		vm := &ViewModel{
			DeviceID: dev.ID,
			Name:     dev.DisplayName(),
			EntryID:  entryID,
			Options:  Options{},
		}
		for _, ent := range entitiesByDevice[dev.ID] {
			for _, ref := range refSuffixes {
				if slot := ref.slot(&vm.Refs); *slot == "" && strings.HasSuffix(ent.UniqueID, ref.suffix) {
					*slot = ent.EntityID
					break
				}
			}
		}
		vms = append(vms, vm)
	}

	// Fetch every entry's options concurrently, fault-isolated per chamber
	var wg sync.WaitGroup
	for _, vm := range vms {
		wg.Add(1)
		go func(vm *ViewModel) {
			defer wg.Done()
			opts, err := src.GetConfig(ctx, vm.EntryID)
			if err != nil {
				log.Warn("Failed to fetch chamber config",
					zap.String("entry_id", vm.EntryID),
					zap.Error(err))
				return
			}
			vm.Options = Options(opts)
		}(vm)
	}
	wg.Wait()

	sort.Slice(vms, func(i, j int) bool { return vms[i].Name < vms[j].Name })
	return vms, nil
}

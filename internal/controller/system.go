// Package controller owns the player slots and the profile registry and
// resolves every slot's action state once per frame.
//
// A System is not safe for concurrent use. It is meant to be owned by the
// frame loop, with settings changes submitted to that loop.
package controller

import (
	"sort"
	"strings"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/mapping"
	"github.com/soar/retrocouch/internal/store"
)

var (
	// ErrInvalidPlayer is returned for a player index outside the slots.
	ErrInvalidPlayer = errors.New("invalid player index")

	// ErrBuiltinProfile is returned when trying to edit or delete a built-in profile.
	ErrBuiltinProfile = errors.New("built-in profiles cannot be changed")

	// ErrProfileNameRequired is returned when saving a profile without a name.
	ErrProfileNameRequired = errors.New("profile name is required")

	// ErrUnknownProfile is returned when a profile id is not in the registry.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrSlotNameRequired is returned when renaming a slot to a blank name.
	ErrSlotNameRequired = errors.New("player name is required")
)

// System is the controller system: up to MaxPlayers slots, the profile
// registry, and the sources the slots are resolved against.
type System struct {
	logger   golog.Logger
	store    store.Store
	keyboard device.KeyboardSource
	gamepads device.GamepadSource

	slots    [MaxPlayers]Slot
	profiles map[string]mapping.Profile

	// captured by the last Update
	keys device.KeySet
	pads []*device.Gamepad
}

// New returns a System with default slots and the built-in profiles. Call
// Initialize to overlay persisted data.
func New(logger golog.Logger, st store.Store, keyboard device.KeyboardSource, gamepads device.GamepadSource) *System {
	if st == nil {
		st = store.NewMemory()
	}
	if gamepads == nil {
		gamepads = device.NoGamepads{}
	}
	return &System{
		logger:   logger,
		store:    st,
		keyboard: keyboard,
		gamepads: gamepads,
		slots:    defaultSlots(),
		profiles: mapping.Builtins(),
	}
}

// Initialize seeds the default slots and profiles, then overlays whatever
// was persisted.
func (s *System) Initialize() {
	s.Restore()
	s.logger.Infof("Controller system ready: %d profiles, %d slots", len(s.profiles), len(s.slots))
}

// Update samples the devices and resolves every slot. It never fails.
func (s *System) Update() {
	s.pads = s.gamepads.Gamepads()
	if s.keyboard != nil {
		s.keys = s.keyboard.KeysDown()
	} else {
		s.keys = nil
	}

	for i := range s.slots {
		slot := &s.slots[i]
		slot.State = s.resolve(slot)
	}
}

func (s *System) resolve(slot *Slot) action.State {
	var sampler device.Sampler

	switch slot.Device.Kind {
	case device.RefKeyboard:
		sampler = device.NewKeyboardSampler(s.keys)
	case device.RefGamepad:
		if slot.Device.Index >= len(s.pads) || s.pads[slot.Device.Index] == nil {
			return action.Neutral()
		}
		sampler = device.NewGamepadSampler(s.pads[slot.Device.Index])
	default:
		return action.Neutral()
	}

	return mapping.Resolve(s.profileFor(slot), sampler)
}

func (s *System) profileFor(slot *Slot) mapping.Profile {
	if p, ok := s.profiles[slot.ProfileID]; ok {
		return p
	}
	return s.profiles[fallbackProfile(slot.Device)]
}

// ActionState returns the state resolved for player on the last Update. An
// index out of range or an unassigned slot yields the neutral state.
func (s *System) ActionState(player int) action.State {
	if player < 0 || player >= MaxPlayers {
		return action.Neutral()
	}
	if s.slots[player].Device.Kind == device.RefNone {
		return action.Neutral()
	}
	return s.slots[player].State
}

// ActionStates returns every slot's state in index order.
func (s *System) ActionStates() []action.State {
	out := make([]action.State, MaxPlayers)
	for i := range out {
		out[i] = s.ActionState(i)
	}
	return out
}

// Slots returns the slot configuration in index order.
func (s *System) Slots() []SlotInfo {
	out := make([]SlotInfo, len(s.slots))
	for i := range s.slots {
		out[i] = s.slots[i].info()
	}
	return out
}

// Slot returns one slot's configuration.
func (s *System) Slot(player int) (SlotInfo, bool) {
	if player < 0 || player >= MaxPlayers {
		return SlotInfo{}, false
	}
	return s.slots[player].info(), true
}

// Gamepads returns the gamepad array captured by the last Update.
func (s *System) Gamepads() []*device.Gamepad {
	return device.ClonePads(s.pads)
}

// KeysDown returns the key-down set captured by the last Update.
func (s *System) KeysDown() device.KeySet {
	out := make(device.KeySet, len(s.keys))
	for k := range s.keys {
		out[k] = struct{}{}
	}
	return out
}

// Profiles returns copies of every registered profile, keyed by id.
func (s *System) Profiles() map[string]mapping.Profile {
	out := make(map[string]mapping.Profile, len(s.profiles))
	for id, p := range s.profiles {
		out[id] = p.Clone()
	}
	return out
}

// ProfileIDs returns the registered ids, built-ins first, each group sorted.
func (s *System) ProfileIDs() []string {
	ids := mapping.BuiltinIDs()
	var custom []string
	for id := range s.profiles {
		if !mapping.IsBuiltin(id) {
			custom = append(custom, id)
		}
	}
	sort.Strings(custom)
	return append(ids, custom...)
}

// Profile returns a copy of one profile.
func (s *System) Profile(id string) (mapping.Profile, bool) {
	p, ok := s.profiles[id]
	if !ok {
		return mapping.Profile{}, false
	}
	return p.Clone(), true
}

// AssignDevice changes the device of a slot, effective from the next Update.
func (s *System) AssignDevice(player int, ref device.Ref) error {
	if player < 0 || player >= MaxPlayers {
		return errors.Wrapf(ErrInvalidPlayer, "player %d", player)
	}
	s.slots[player].Device = ref
	s.logger.Infof("Player %d device set to %q", player+1, ref)
	return s.Persist()
}

// AssignProfile changes the profile of a slot, effective from the next
// Update. The id is not checked: a missing profile resolves through the
// fallback.
func (s *System) AssignProfile(player int, profileID string) error {
	if player < 0 || player >= MaxPlayers {
		return errors.Wrapf(ErrInvalidPlayer, "player %d", player)
	}
	if _, ok := s.profiles[profileID]; !ok {
		s.logger.Warnf("Player %d assigned unknown profile %q, falling back to %s",
			player+1, profileID, fallbackProfile(s.slots[player].Device))
	}
	s.slots[player].ProfileID = profileID
	s.logger.Infof("Player %d profile set to %q", player+1, profileID)
	return s.Persist()
}

// RenameSlot changes the display name of a slot. An empty name is refused.
func (s *System) RenameSlot(player int, name string) error {
	if player < 0 || player >= MaxPlayers {
		return errors.Wrapf(ErrInvalidPlayer, "player %d", player)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Wrapf(ErrSlotNameRequired, "player %d", player)
	}
	s.slots[player].Name = name
	return s.Persist()
}

// NewCustomProfileID returns a fresh id for a custom profile.
func NewCustomProfileID() string {
	return "custom-" + uuid.NewString()
}

// UpsertCustomProfile adds or replaces a custom profile. Built-in ids and
// profiles flagged as default are refused, as are profiles without a name.
// The registry keeps its own copy.
func (s *System) UpsertCustomProfile(id string, p mapping.Profile) error {
	if id == "" {
		return errors.New("profile id is required")
	}
	if mapping.IsBuiltin(id) || p.IsDefault {
		return errors.Wrapf(ErrBuiltinProfile, "profile %q", id)
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.Wrapf(ErrProfileNameRequired, "profile %q", id)
	}

	c := p.Clone()
	c.IsDefault = false
	s.profiles[id] = c
	s.logger.Infof("Profile %q saved (%s)", c.Name, id)
	return s.Persist()
}

// DeleteCustomProfile removes a custom profile. Slots still referencing it
// resolve through the fallback profile.
func (s *System) DeleteCustomProfile(id string) error {
	if mapping.IsBuiltin(id) {
		return errors.Wrapf(ErrBuiltinProfile, "profile %q", id)
	}
	if _, ok := s.profiles[id]; !ok {
		return errors.Wrapf(ErrUnknownProfile, "profile %q", id)
	}
	delete(s.profiles, id)

	for i := range s.slots {
		if s.slots[i].ProfileID == id {
			s.logger.Warnf("Player %d uses deleted profile %q, falling back to %s",
				i+1, id, fallbackProfile(s.slots[i].Device))
		}
	}
	s.logger.Infof("Profile %s deleted", id)
	return s.Persist()
}

package controller

import (
	"fmt"

	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/mapping"
)

// MaxPlayers is the number of player slots.
const MaxPlayers = 4

// Slot binds a device and a profile to one player and holds the state
// resolved for it on the last update.
type Slot struct {
	Index     int
	Name      string
	Device    device.Ref
	ProfileID string
	State     action.State
}

// SlotInfo is the read-only view of a slot handed to settings tooling.
type SlotInfo struct {
	Index     int        `json:"index"`
	Name      string     `json:"name"`
	Device    device.Ref `json:"device"`
	ProfileID string     `json:"profileId"`
}

func (s *Slot) info() SlotInfo {
	return SlotInfo{Index: s.Index, Name: s.Name, Device: s.Device, ProfileID: s.ProfileID}
}

func defaultSlots() [MaxPlayers]Slot {
	var slots [MaxPlayers]Slot
	for i := range slots {
		slots[i] = Slot{
			Index:     i,
			Name:      fmt.Sprintf("Player %d", i+1),
			ProfileID: mapping.DefaultGamepad,
		}
	}
	slots[0].Device = device.Keyboard
	slots[0].ProfileID = mapping.DefaultKeyboard
	return slots
}

// fallbackProfile is used when a slot references a profile that no longer
// exists: the default for the kind of device the slot uses.
func fallbackProfile(ref device.Ref) string {
	if ref.Kind == device.RefKeyboard {
		return mapping.DefaultKeyboard
	}
	return mapping.DefaultGamepad
}

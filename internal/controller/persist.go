package controller

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/mapping"
)

// Store keys of the two persisted records.
const (
	PlayersKey  = "retro_couch_players"
	ProfilesKey = "retro_couch_profiles"
)

type slotRecord struct {
	Name      string  `json:"name"`
	Device    *string `json:"device"`
	ProfileID string  `json:"profileId"`
}

// Persist writes the slot assignments and the custom profiles. Built-in
// profiles are never written.
func (s *System) Persist() error {
	records := make([]slotRecord, len(s.slots))
	for i, slot := range s.slots {
		records[i] = slotRecord{Name: slot.Name, ProfileID: slot.ProfileID}
		if slot.Device.Kind != device.RefNone {
			ref := slot.Device.String()
			records[i].Device = &ref
		}
	}

	custom := make(map[string]mapping.Profile)
	for id, p := range s.profiles {
		if !mapping.IsBuiltin(id) && !p.IsDefault {
			custom[id] = p
		}
	}

	var err error
	if data, mErr := json.Marshal(records); mErr != nil {
		err = multierr.Append(err, errors.Wrap(mErr, "cannot encode players"))
	} else if sErr := s.store.Set(PlayersKey, string(data)); sErr != nil {
		err = multierr.Append(err, errors.Wrap(sErr, "cannot save players"))
	}

	if data, mErr := json.Marshal(custom); mErr != nil {
		err = multierr.Append(err, errors.Wrap(mErr, "cannot encode profiles"))
	} else if sErr := s.store.Set(ProfilesKey, string(data)); sErr != nil {
		err = multierr.Append(err, errors.Wrap(sErr, "cannot save profiles"))
	}

	if err != nil {
		s.logger.Errorw("persist failed", "error", err)
	}
	return err
}

// Restore resets slots and registry to their defaults and overlays the
// persisted records. A record that cannot be decoded is ignored as a whole.
func (s *System) Restore() {
	s.slots = defaultSlots()
	s.profiles = mapping.Builtins()

	if raw, ok := s.store.Get(ProfilesKey); ok {
		custom, err := decodeProfiles(raw)
		if err != nil {
			s.logger.Warnf("Ignoring saved profiles: %v", err)
		} else {
			for id, p := range custom {
				if _, exists := s.profiles[id]; exists {
					s.logger.Warnf("Ignoring saved profile %q: id belongs to a built-in", id)
					continue
				}
				s.profiles[id] = p
			}
		}
	}

	if raw, ok := s.store.Get(PlayersKey); ok {
		records, err := decodePlayers(raw)
		if err != nil {
			s.logger.Warnf("Ignoring saved players: %v", err)
			return
		}
		for i, rec := range records {
			if i >= MaxPlayers {
				break
			}
			if rec == nil {
				continue
			}
			s.applyRecord(&s.slots[i], rec)
		}
	}
}

func (s *System) applyRecord(slot *Slot, rec *slotRecord) {
	if name := strings.TrimSpace(rec.Name); name != "" {
		slot.Name = name
	}

	slot.Device = device.None
	if rec.Device != nil {
		ref, err := device.ParseRef(*rec.Device)
		if err != nil {
			s.logger.Warnf("Player %d: %v, leaving unassigned", slot.Index+1, err)
		} else {
			slot.Device = ref
		}
	}

	if rec.ProfileID != "" {
		slot.ProfileID = rec.ProfileID
	}
}

func decodePlayers(raw string) ([]*slotRecord, error) {
	var records []*slotRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, errors.Wrap(err, "malformed players record")
	}
	return records, nil
}

func decodeProfiles(raw string) (map[string]mapping.Profile, error) {
	var profiles map[string]mapping.Profile
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		return nil, errors.Wrap(err, "malformed profiles record")
	}
	for id, p := range profiles {
		if id == "" {
			return nil, errors.New("malformed profiles record: empty id")
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.Wrapf(ErrProfileNameRequired, "malformed profiles record: profile %q", id)
		}
		p.IsDefault = false
		profiles[id] = p
	}
	return profiles, nil
}

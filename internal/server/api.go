package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/controller"
	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/game"
	"github.com/soar/retrocouch/internal/loop"
	"github.com/soar/retrocouch/internal/mapping"
	"github.com/soar/retrocouch/internal/remap"
)

var errBadRequest = errors.New("bad request")

const maxBody = 1 << 20

func badRequest(err error) error {
	return errors.Wrap(errBadRequest, err.Error())
}

// statusOf maps an error to the HTTP status it is reported with.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, controller.ErrInvalidPlayer),
		errors.Is(err, controller.ErrProfileNameRequired),
		errors.Is(err, controller.ErrSlotNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrUnknownProfile),
		errors.Is(err, game.ErrUnknownGame):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrBuiltinProfile),
		errors.Is(err, remap.ErrCaptureActive),
		errors.Is(err, remap.ErrCaptureCancelled),
		errors.Is(err, game.ErrGameDisabled):
		return http.StatusConflict
	case errors.Is(err, loop.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		s.logger.Errorw("request failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return badRequest(errors.Wrap(err, "malformed body"))
	}
	return nil
}

func playerIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, badRequest(errors.Errorf("invalid player index %q", r.PathValue("index")))
	}
	return i, nil
}

// do runs fn on the frame loop.
func (s *Server) do(r *http.Request, fn func() error) error {
	return s.loop.Do(r.Context(), fn)
}

func (s *Server) listSlots(w http.ResponseWriter, r *http.Request) {
	var slots []controller.SlotInfo
	if err := s.do(r, func() error {
		slots = s.system.Slots()
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

type slotUpdate struct {
	Name      *string `json:"name"`
	Device    *string `json:"device"`
	ProfileID *string `json:"profileId"`
}

func (s *Server) updateSlot(w http.ResponseWriter, r *http.Request) {
	player, err := playerIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body slotUpdate
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	var ref device.Ref
	if body.Device != nil {
		if ref, err = device.ParseRef(*body.Device); err != nil {
			s.writeError(w, badRequest(err))
			return
		}
	}

	var info controller.SlotInfo
	err = s.do(r, func() error {
		if _, ok := s.system.Slot(player); !ok {
			return errors.Wrapf(controller.ErrInvalidPlayer, "player %d", player)
		}
		if body.Name != nil {
			if err := s.system.RenameSlot(player, *body.Name); err != nil {
				return err
			}
		}
		if body.Device != nil {
			if err := s.system.AssignDevice(player, ref); err != nil {
				return err
			}
		}
		if body.ProfileID != nil {
			if err := s.system.AssignProfile(player, *body.ProfileID); err != nil {
				return err
			}
		}
		info, _ = s.system.Slot(player)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type profileView struct {
	ID        string          `json:"id"`
	Builtin   bool            `json:"builtin"`
	Name      string          `json:"name"`
	IsDefault bool            `json:"isDefault"`
	Mapping   mapping.Mapping `json:"mapping"`
}

func viewOf(id string, p mapping.Profile) profileView {
	m := p.Mapping
	if m == nil {
		m = mapping.Mapping{}
	}
	return profileView{ID: id, Builtin: mapping.IsBuiltin(id), Name: p.Name, IsDefault: p.IsDefault, Mapping: m}
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	var out []profileView
	if err := s.do(r, func() error {
		for _, id := range s.system.ProfileIDs() {
			p, _ := s.system.Profile(id)
			out = append(out, viewOf(id, p))
		}
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request, id string, code int) {
	var p mapping.Profile
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, err)
		return
	}
	var saved mapping.Profile
	err := s.do(r, func() error {
		if err := s.system.UpsertCustomProfile(id, p); err != nil {
			return err
		}
		saved, _ = s.system.Profile(id)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, code, viewOf(id, saved))
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	s.saveProfile(w, r, controller.NewCustomProfileID(), http.StatusCreated)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	s.saveProfile(w, r, r.PathValue("id"), http.StatusOK)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.do(r, func() error {
		return s.system.DeleteCustomProfile(id)
	}); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type remapRequest struct {
	Device string `json:"device"`
}

type remapResult struct {
	Action action.Action `json:"action"`
	Source string        `json:"source"`
}

// remap waits for the next input on a device and binds it to an action of a
// custom profile. The request stays open until an input arrives.
func (s *Server) remap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	act, ok := action.Parse(r.PathValue("action"))
	if !ok {
		s.writeError(w, badRequest(errors.Errorf("unknown action %q", r.PathValue("action"))))
		return
	}
	var body remapRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	ref, err := device.ParseRef(body.Device)
	if err != nil || ref.Kind == device.RefNone {
		s.writeError(w, badRequest(errors.Errorf("invalid device %q", body.Device)))
		return
	}

	// session is only touched on the loop goroutine until Do returns nil
	var session *remap.Session
	err = s.do(r, func() error {
		if err := r.Context().Err(); err != nil {
			return err
		}
		if err := s.checkEditable(id); err != nil {
			return err
		}
		var err error
		session, err = s.loop.Capturer().Begin(ref)
		return err
	})
	if err != nil {
		if r.Context().Err() != nil {
			// Begin may still have run after the client went away
			s.releaseCapture(&session)
		}
		s.writeError(w, err)
		return
	}
	s.logger.Debugf("Waiting for %s input to bind %s of %s", ref, act, id)

	in, err := session.Wait(r.Context())
	if err != nil {
		s.releaseCapture(&session)
		s.writeError(w, err)
		return
	}

	src := mapping.Digital{Input: in}
	err = s.do(r, func() error {
		if err := s.checkEditable(id); err != nil {
			return err
		}
		p, _ := s.system.Profile(id)
		p.Mapping[act] = src
		return s.system.UpsertCustomProfile(id, p)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, remapResult{Action: act, Source: mapping.Format(src)})
}

// releaseCapture cancels *session on the loop, after every request queued
// before it has run. The guard is left alone if the session already ended.
func (s *Server) releaseCapture(session **remap.Session) {
	_ = s.loop.Do(context.Background(), func() error {
		if *session != nil {
			(*session).Cancel()
		}
		return nil
	})
}

func (s *Server) checkEditable(id string) error {
	if mapping.IsBuiltin(id) {
		return errors.Wrapf(controller.ErrBuiltinProfile, "profile %q", id)
	}
	if _, ok := s.system.Profile(id); !ok {
		return errors.Wrapf(controller.ErrUnknownProfile, "profile %q", id)
	}
	return nil
}

func (s *Server) cancelRemap(w http.ResponseWriter, r *http.Request) {
	if err := s.do(r, func() error {
		s.loop.Capturer().Cancel()
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	var states []action.State
	if err := s.do(r, func() error {
		states = s.system.ActionStates()
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

type devicesView struct {
	Gamepads []*device.Gamepad `json:"gamepads"`
	Keys     []string          `json:"keys"`
}

func (s *Server) getGamepads(w http.ResponseWriter, r *http.Request) {
	var out devicesView
	if err := s.do(r, func() error {
		out.Gamepads = s.system.Gamepads()
		out.Keys = s.system.KeysDown().Codes()
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	if out.Gamepads == nil {
		out.Gamepads = []*device.Gamepad{}
	}
	if out.Keys == nil {
		out.Keys = []string{}
	}
	writeJSON(w, http.StatusOK, out)
}

type gamesView struct {
	Games   []game.Entry `json:"games"`
	Running string       `json:"running,omitempty"`
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	out := gamesView{Games: s.host.Registry().Entries()}
	out.Running, _ = s.host.Current()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) launchGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.do(r, func() error {
		return s.host.Launch(id)
	}); err != nil {
		s.writeError(w, err)
		return
	}
	width, height := s.host.Size()
	writeJSON(w, http.StatusOK, map[string]any{"running": id, "width": width, "height": height})
}

func (s *Server) exitGame(w http.ResponseWriter, r *http.Request) {
	if err := s.do(r, func() error {
		s.host.Exit()
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.host.EncodePNG(w); err != nil {
		s.logger.Debugf("Frame not sent: %v", err)
	}
}

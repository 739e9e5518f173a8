// Package server serves the settings API, rendered game frames, the two
// websockets and the embedded frontend.
package server

import (
	"context"
	"io/fs"
	"net/http"
	"regexp"

	"github.com/edaniels/golog"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/soar/retrocouch/internal/controller"
	"github.com/soar/retrocouch/internal/game"
	"github.com/soar/retrocouch/internal/hub"
	"github.com/soar/retrocouch/internal/loop"
)

// Options are the parts the server is wired to. Input and Frontend may be
// nil.
type Options struct {
	Logger      golog.Logger
	Addr        string
	Loop        *loop.Loop
	System      *controller.System
	Host        *game.Host
	Hub         *hub.Hub
	Broadcaster *hub.Broadcaster
	Input       http.Handler
	Frontend    fs.FS
}

type Server struct {
	logger      golog.Logger
	addr        string
	loop        *loop.Loop
	system      *controller.System
	host        *game.Host
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	input       http.Handler
	frontendFS  fs.FS
	httpServer  *http.Server
}

func New(opts Options) *Server {
	s := &Server{
		logger:      opts.Logger,
		addr:        opts.Addr,
		loop:        opts.Loop,
		system:      opts.System,
		host:        opts.Host,
		hub:         opts.Hub,
		broadcaster: opts.Broadcaster,
		input:       opts.Input,
		frontendFS:  opts.Frontend,
	}
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoints
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.handleWebSocket)
	}
	if s.input != nil {
		mux.Handle("GET /input", s.input)
	}

	mux.HandleFunc("GET /api/slots", s.listSlots)
	mux.HandleFunc("PUT /api/slots/{index}", s.updateSlot)
	mux.HandleFunc("GET /api/profiles", s.listProfiles)
	mux.HandleFunc("POST /api/profiles", s.createProfile)
	mux.HandleFunc("PUT /api/profiles/{id}", s.updateProfile)
	mux.HandleFunc("DELETE /api/profiles/{id}", s.deleteProfile)
	mux.HandleFunc("POST /api/profiles/{id}/remap/{action}", s.remap)
	mux.HandleFunc("DELETE /api/remap", s.cancelRemap)
	mux.HandleFunc("GET /api/state", s.getState)
	mux.HandleFunc("GET /api/gamepads", s.getGamepads)
	mux.HandleFunc("GET /api/games", s.listGames)
	mux.HandleFunc("POST /api/games/{id}/launch", s.launchGame)
	mux.HandleFunc("POST /api/games/exit", s.exitGame)
	mux.HandleFunc("GET /api/frame.png", s.getFrame)

	// Static files (frontend)
	if s.frontendFS != nil {
		mux.Handle("/", newMinifier().Middleware(http.FileServer(http.FS(s.frontendFS))))
	}
	return mux
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// ListenAndServe serves until Shutdown is called, which may happen before
// or during the call.
func (s *Server) ListenAndServe() error {
	s.logger.Infof("HTTP server listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

// Package web provides the HTTP interface of the http-gpio daemon.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/sweeney/http-gpio/internal/logic"
	"github.com/sweeney/http-gpio/internal/status"
)

// MaxBodyBytes caps the size of a command body.
const MaxBodyBytes = 1024

// Banner is the body of GET /gpio.
const Banner = "This is the GPIO API"

// Executor runs a command on a line.
type Executor interface {
	Execute(ctx context.Context, chip string, pin int, cmd logic.Command) (logic.Outcome, error)
}

// Server serves the GPIO API over HTTP.
type Server struct {
	httpServer *http.Server
	exec       Executor
	tracker    *status.Tracker
	log        logrus.FieldLogger
}

// New creates a Server that runs commands through exec and reports state
// from tracker.
func New(addr string, exec Executor, tracker *status.Tracker, log logrus.FieldLogger) *Server {
	s := &Server{exec: exec, tracker: tracker, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/gpio", s.handleBanner).Methods(http.MethodGet)
	r.HandleFunc("/gpio/status", s.handleStatusJSON).Methods(http.MethodGet)
	r.HandleFunc("/gpio/status.html", s.handleStatusHTML).Methods(http.MethodGet)
	r.HandleFunc("/gpio/{chip}/{pin:[0-9]+}", s.handleCommand).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: logRequests(log, r),
	}
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, Banner)
}

func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleStatusHTML(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		requestLogger(r.Context(), s.log).WithError(err).Warn("render status page")
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chip := vars["chip"]
	log := requestLogger(r.Context(), s.log).WithField("chip", chip)

	pin, err := strconv.ParseUint(vars["pin"], 10, 32)
	if err != nil {
		writeRequestError(w, log, http.StatusBadRequest, logic.RequestError("invalid pin %q", vars["pin"]))
		return
	}
	log = log.WithField("pin", pin)

	cmd, code, err := readCommand(w, r)
	if err != nil {
		writeRequestError(w, log, code, err)
		return
	}
	log = log.WithField("direction", cmd.Direction())

	out, err := s.exec.Execute(r.Context(), chip, int(pin), cmd)
	if err != nil {
		log.WithError(err).WithField("kind", logic.KindOf(err)).Warn("command failed")
	} else {
		log.WithField("cmd", cmd).Info("command executed")
	}
	writeOutcome(w, out, err)
}

// readCommand reads and decodes the body, enforcing MaxBodyBytes. On
// failure it returns the status the request should be rejected with.
func readCommand(w http.ResponseWriter, r *http.Request) (logic.Command, int, error) {
	if r.ContentLength > MaxBodyBytes {
		return logic.Command{}, http.StatusRequestEntityTooLarge,
			logic.RequestError("body of %d bytes exceeds %d byte limit", r.ContentLength, MaxBodyBytes)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return logic.Command{}, http.StatusRequestEntityTooLarge,
				logic.RequestError("body exceeds %d byte limit", MaxBodyBytes)
		}
		return logic.Command{}, http.StatusBadRequest, logic.RequestError("read body: %v", err)
	}

	cmd, err := logic.ParseCommand(body)
	if err != nil {
		return logic.Command{}, http.StatusBadRequest, err
	}
	return cmd, 0, nil
}

// writeOutcome maps a dispatcher result to a response: 200 with "Success"
// or "Success, value: N", or 500 with the error description.
func writeOutcome(w http.ResponseWriter, out logic.Outcome, err error) {
	switch {
	case err != nil:
		writeText(w, http.StatusInternalServerError, err.Error())
	case out.HasValue:
		writeText(w, http.StatusOK, fmt.Sprintf("Success, value: %d", out.Value))
	default:
		writeText(w, http.StatusOK, "Success")
	}
}

func writeRequestError(w http.ResponseWriter, log logrus.FieldLogger, code int, err error) {
	log.WithError(err).WithField("status", code).Info("request rejected")
	writeText(w, code, err.Error())
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	io.WriteString(w, body)
}

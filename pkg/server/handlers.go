package server

import (
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"xfollowers/internal/runner"
	"xfollowers/pkg/csvcodec"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
	"xfollowers/pkg/twitter"
)

type startRequest struct {
	Handle string `json:"handle"`
	Mode   string `json:"mode"`
}

type pollRequest struct {
	Handle string `json:"handle"`
	RunID  string `json:"runId"`
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w) {
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.", "")
		return
	}
	handle := twitter.NormalizeHandle(req.Handle)
	if handle == "" {
		writeError(w, http.StatusBadRequest, "Missing or invalid handle.", "")
		return
	}
	mode, ok := models.ParseRunMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown run mode.", "")
		return
	}

	if !s.starts.Allow() {
		if ra, ok := s.starts.(ratelimit.RetryAfterer); ok {
			if wait := ra.RetryAfter(); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
		}
		writeError(w, http.StatusTooManyRequests, "Too many runs started, try again later.", "")
		return
	}

	id, err := s.runs.Start(handle, mode)
	switch {
	case err == nil:
	case stderrors.Is(err, runner.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, "Run queue is full, try again later.", "")
		return
	case stderrors.Is(err, runner.ErrPoolStopped):
		writeError(w, http.StatusServiceUnavailable, "Server shutting down.", "")
		return
	default:
		writeError(w, statusFor(err), errors.Message(err), errors.Detail(err))
		return
	}

	writeJSON(w, http.StatusAccepted, startResponse{RunID: id})
}

func (s *Server) pollRun(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.", "")
		return
	}
	if strings.TrimSpace(req.RunID) == "" {
		writeError(w, http.StatusBadRequest, "Missing runId.", "")
		return
	}

	run, ok := s.runs.Get(req.RunID, req.Handle)
	if !ok {
		writeError(w, http.StatusNotFound, "Run not found.", "")
		return
	}

	switch run.Status {
	case models.RunStatusRunning:
		writeJSON(w, http.StatusOK, pollResponse{
			Status:  string(run.Status),
			Fetched: intPtr(run.Fetched),
			Pages:   intPtr(run.Pages),
		})
	case models.RunStatusError:
		writeJSON(w, http.StatusOK, pollResponse{
			Status: string(run.Status),
			Error:  run.Err,
			Detail: run.Detail,
		})
	default:
		if run.Mode == models.RunModeFollowers {
			writeCSV(w, run.CSV, csvcodec.FollowersFilename(run.Handle))
			return
		}
		writeJSON(w, http.StatusOK, pollResponse{
			Status:    string(run.Status),
			Total:     intPtr(run.Counts.Total),
			Tech:      intPtr(run.Counts.Tech),
			Medical:   intPtr(run.Counts.Medical),
			Other:     intPtr(run.Counts.Other),
			Truncated: run.Truncated,
			CSV:       run.CSV,
		})
	}
}

// scrape fetches synchronously and answers with the CSV in one round trip
func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w) {
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.", "")
		return
	}
	handle := twitter.NormalizeHandle(req.Handle)
	if handle == "" {
		writeError(w, http.StatusBadRequest, "Missing or invalid handle.", "")
		return
	}

	res, err := s.fetcher.FetchWithProgress(r.Context(), handle, nil)
	if err != nil {
		writeError(w, statusFor(err), errors.Message(err), errors.Detail(err))
		return
	}
	writeCSV(w, csvcodec.EncodeFollowers(res.Followers), csvcodec.FollowersFilename(handle))
}

func (s *Server) requireToken(w http.ResponseWriter) bool {
	if s.cfg.Provider.BearerToken != "" {
		return true
	}
	writeError(w, http.StatusInternalServerError, "Missing X API bearer token.", "")
	return false
}

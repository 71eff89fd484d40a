package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tessellate/pkg/buildinfo"
	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/imgio"
	"github.com/matzehuels/tessellate/pkg/pipeline"
	"github.com/matzehuels/tessellate/pkg/render/usage"
	"github.com/matzehuels/tessellate/pkg/store"
)

// maxBodyBytes bounds request bodies; options are small.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body: %v", err))
		return
	}

	target, err := s.resolve(opts.Target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tileDir, err := s.resolve(opts.TileDir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Target, opts.TileDir = target, tileDir
	// Planning only; images are rendered on demand.
	opts.Formats = nil

	res, err := s.cfg.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := store.NewRecord(opts, res)
	if err := s.cfg.Store.Save(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/plans/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}
	recs, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidatePlanID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlanImage(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatPNG
	}
	if err := errs.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, ok := s.record(w, r)
	if !ok {
		return
	}

	artifacts, err := s.cfg.Runner.RenderPlan(r.Context(), rec.Plan, rec.RenderOptions(format))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", imgio.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handlePlanUsage(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	svg, err := usage.RenderSVG(r.Context(), usage.ToDOT(rec.Plan, rec.TileNames, usage.Options{
		Neighbors: r.URL.Query().Get("neighbors") == "true",
	}))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// record loads the plan named by the {id} URL parameter, writing an error
// response when it cannot.
func (s *Server) record(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidatePlanID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	rec, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rec, true
}

// resolve validates a request path and joins it to the server root.
func (s *Server) resolve(p string) (string, error) {
	if err := errs.ValidatePath(p); err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.Root, filepath.FromSlash(p)), nil
}

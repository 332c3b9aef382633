package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/pipeline"
	"github.com/dgallion1/vsdgest/internal/report"
	"github.com/go-chi/chi/v5"
)

// result returns the decoded tree of the job named in the URL, writing an
// error response and returning nil when there is none yet.
func (s *Server) result(w http.ResponseWriter, r *http.Request) *doctree.DocTree {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	snap := job.Snapshot()
	tree := job.Result()
	if tree == nil {
		if snap.Status == pipeline.StatusFailed {
			jsonError(w, "decode failed", http.StatusUnprocessableEntity)
		} else {
			jsonError(w, "decode not finished: "+string(snap.Status), http.StatusConflict)
		}
		return nil
	}
	return tree
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree := s.result(w, r)
	if tree == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tree)
}

// handleOutline renders the outline as HTML, or as Markdown with
// ?format=md. ?depth bounds the chunk listing.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	var opts report.Options
	if v := r.URL.Query().Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "invalid depth", http.StatusBadRequest)
			return
		}
		opts.ChunkDepth = n
	}

	tree := s.result(w, r)
	if tree == nil {
		return
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(report.Outline(tree, opts))
		return
	}

	page, err := report.HTML(tree, opts)
	if err != nil {
		s.log.Error("render outline", "error", err)
		jsonError(w, "failed to render outline", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

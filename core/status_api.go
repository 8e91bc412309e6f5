package core

// Optional read-only HTTP status server. Gives operators and monitoring a
// view of the node without touching the gossip protocol; disabled unless an
// API bind address is configured.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// StatusServer serves node state over HTTP.
type StatusServer struct {
	node *Node
	addr string
}

// NewStatusServer binds the read-only API for node.
func NewStatusServer(addr string, node *Node) *StatusServer {
	return &StatusServer{node: node, addr: addr}
}

// Start blocks serving HTTP; run it as a detached task.
func (s *StatusServer) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", s.handleStatus)
	r.Get("/blocks", s.handleBlocks)
	r.Get("/balance/{address}", s.handleBalance)

	logrus.Infof("Status API listening on %s", s.addr)
	return http.ListenAndServe(s.addr, r)
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Peer    string `json:"peer"`
		Peers   int    `json:"peers"`
		TipID   *int64 `json:"tip_id"`
		TipHash string `json:"tip_hash,omitempty"`
		Pending int    `json:"pending_txs"`
	}
	out := status{
		Peer:    s.node.Swarm().ID().String(),
		Peers:   s.node.Swarm().PeerCount(),
		Pending: s.node.pool.Len(),
	}
	tip, err := s.node.Store().LatestBlock()
	switch {
	case errors.Is(err, ErrBlockNotFound):
	case err != nil:
		httpError(w, err)
		return
	default:
		out.TipID = &tip.ID
		out.TipHash = tip.Hash().String()
	}
	writeJSON(w, out)
}

func (s *StatusServer) handleBlocks(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	blocks, err := s.node.Store().RecentBlocks(n)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, blocks)
}

func (s *StatusServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		http.Error(w, "malformed address", http.StatusBadRequest)
		return
	}
	balance, err := Balance(s.node.Store(), addr)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"address": addr.String(),
		"balance": balance,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Status API encode: %v", err)
	}
}

func httpError(w http.ResponseWriter, err error) {
	logrus.Warnf("Status API: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

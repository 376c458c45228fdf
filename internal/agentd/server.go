// Package agentd is a local signer agent: it holds an RSA wallet key and
// lets approved applications read the address and request signatures over
// HTTP/JSON. It is the server side of the client/agent connector.
package agentd

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/dmitrijs2005/turbouploader/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 64 << 10

// Approver decides a connect request. It may block on user interaction.
type Approver func(ctx context.Context, perms []wallet.Permission, app wallet.AppInfo) bool

// AutoApprove grants every request.
func AutoApprove(context.Context, []wallet.Permission, wallet.AppInfo) bool { return true }

type session struct {
	perms []wallet.Permission
	app   wallet.AppInfo
}

// Server serves the agent API for one wallet.
type Server struct {
	wallet  *wallet.SponsoredWallet
	approve Approver
	log     logging.Logger

	mu       sync.Mutex
	sessions map[string]session
}

// NewServer builds an agent for w. A nil approve means AutoApprove.
func NewServer(w *wallet.SponsoredWallet, approve Approver, log logging.Logger) *Server {
	if approve == nil {
		approve = AutoApprove
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		wallet:   w,
		approve:  approve,
		log:      log.With("component", "agentd"),
		sessions: make(map[string]session),
	}
}

// NewRouter registers the agent routes.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/connect", s.handleConnect).Methods(http.MethodPost)
	r.HandleFunc("/v1/disconnect", s.withSession(nil, s.handleDisconnect)).Methods(http.MethodPost)
	r.HandleFunc("/v1/address", s.withSession(
		[]wallet.Permission{wallet.PermAccessAddress}, s.handleAddress)).Methods(http.MethodGet)
	r.HandleFunc("/v1/public-key", s.withSession(
		[]wallet.Permission{wallet.PermAccessPublicKey}, s.handlePublicKey)).Methods(http.MethodGet)
	r.HandleFunc("/v1/sign", s.withSession(
		[]wallet.Permission{wallet.PermSignature, wallet.PermSignTransaction}, s.handleSign)).Methods(http.MethodPost)
	return r
}

// Sessions reports the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string)

// withSession rejects requests without a known session (401) or, when
// anyOf is set, without at least one of those permissions (403).
func (s *Server) withSession(anyOf []wallet.Permission, next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.AgentSessionHeaderName)

		s.mu.Lock()
		sess, ok := s.sessions[id]
		s.mu.Unlock()

		if id == "" || !ok {
			http.Error(w, "not connected", http.StatusUnauthorized)
			return
		}
		if len(anyOf) > 0 && !slices.ContainsFunc(anyOf, func(p wallet.Permission) bool {
			return slices.Contains(sess.perms, p)
		}) {
			http.Error(w, "permission denied", http.StatusForbidden)
			return
		}
		next(w, r, id)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ready": s.wallet != nil})
}

type connectRequest struct {
	Permissions []wallet.Permission `json:"permissions"`
	AppInfo     wallet.AppInfo      `json:"appInfo"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var in connectRequest
	if err := decodeJSON(w, r, &in); err != nil || len(in.Permissions) == 0 {
		http.Error(w, "invalid connect request", http.StatusBadRequest)
		return
	}

	if !s.approve(r.Context(), in.Permissions, in.AppInfo) {
		s.log.Info(r.Context(), "connect denied", "app", in.AppInfo.Name)
		http.Error(w, "permission denied", http.StatusForbidden)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = session{perms: slices.Clone(in.Permissions), app: in.AppInfo}
	s.mu.Unlock()

	s.log.Info(r.Context(), "app connected", "app", in.AppInfo.Name, "permissions", len(in.Permissions))
	writeJSON(w, http.StatusOK, map[string]string{"session": id})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request, _ string) {
	writeJSON(w, http.StatusOK, map[string]string{"address": s.wallet.Address()})
}

func (s *Server) handlePublicKey(w http.ResponseWriter, r *http.Request, _ string) {
	owner, err := s.wallet.Owner(r.Context())
	if err != nil {
		http.Error(w, "no public key", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": owner})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request, _ string) {
	var in struct {
		Data string `json:"data"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		http.Error(w, "invalid sign request", http.StatusBadRequest)
		return
	}
	digest, err := base64.RawURLEncoding.DecodeString(in.Data)
	if err != nil || len(digest) != sha256.Size {
		http.Error(w, "data must be a base64url SHA-256 digest", http.StatusBadRequest)
		return
	}

	sig, err := s.wallet.Sign(r.Context(), digest)
	if err != nil {
		s.log.Error(r.Context(), "signing failed", "error", err)
		http.Error(w, "signing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signature": base64.RawURLEncoding.EncodeToString(sig)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

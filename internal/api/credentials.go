package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vpnhub/internal/models"
)

// ---- OpenVPN ----

func (h *Handler) OVPNActive(w http.ResponseWriter, r *http.Request) {
	cl, _, err := h.client(operatorID(r), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	sessions, err := cl.ListActiveSessions(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"active": sessions})
}

func (h *Handler) OVPNSecrets(w http.ResponseWriter, r *http.Request) {
	cl, _, err := h.client(operatorID(r), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	secrets, err := cl.ListEnabledSecrets(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	// пароли наружу не отдаём списком, только имена и состояние
	type row struct {
		Name    string `json:"name"`
		Profile string `json:"profile"`
	}
	rows := make([]row, 0, len(secrets))
	for _, s := range secrets {
		rows = append(rows, row{Name: s.Name, Profile: s.Profile})
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"secrets": rows})
}

// OVPNCreate создаёт секрет и сразу отдаёт готовый .ovpn профиль.
func (h *Handler) OVPNCreate(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}

	creds, err := cl.CreateSecret(r.Context(), in.Name)
	h.audit(r, "ovpn.create", deviceID, in.Name, err)
	if err != nil {
		writeErr(w, err)
		return
	}

	content, filename, err := h.tpl.RenderProfile(creds.Name, creds.Password, deviceID)
	if err != nil {
		// секрет уже создан; профиль можно забрать позже отдельным вызовом
		models.WriteJSON(w, http.StatusCreated, map[string]any{
			"name":     creds.Name,
			"password": creds.Password,
			"message":  "secret " + creds.Name + " created, profile render failed: " + err.Error(),
		})
		return
	}
	bundle, err := h.gen.ProfileBundle(content, filename)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer bundle.Cleanup()

	files, err := bundleFiles(bundle)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"name":     creds.Name,
		"password": creds.Password,
		"message":  "secret " + creds.Name + " created",
		"files":    files,
	})
}

// OVPNProfile рендерит профиль для уже существующего секрета.
func (h *Handler) OVPNProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, name := vars["id"], vars["name"]
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	creds, err := cl.FetchCredentials(r.Context(), name)
	if err != nil {
		writeErr(w, err)
		return
	}
	content, filename, err := h.tpl.RenderProfile(creds.Name, creds.Password, deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	bundle, err := h.gen.ProfileBundle(content, filename)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer bundle.Cleanup()

	files, err := bundleFiles(bundle)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    name,
		"message": "profile for " + name + " rendered",
		"files":   files,
	})
}

func (h *Handler) OVPNDeactivate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, name := vars["id"], vars["name"]
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	err = cl.DeactivateSession(r.Context(), name)
	h.audit(r, "ovpn.deactivate", deviceID, name, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "session " + name + " deactivated"})
}

func (h *Handler) OVPNDisable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, name := vars["id"], vars["name"]
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	err = cl.DisableSecret(r.Context(), name)
	h.audit(r, "ovpn.disable", deviceID, name, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "secret " + name + " disabled"})
}

// ---- WireGuard ----

func (h *Handler) WGPeers(w http.ResponseWriter, r *http.Request) {
	cl, _, err := h.client(operatorID(r), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	peers, err := cl.ListPeers(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	type row struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Address  string `json:"allowed_address"`
		Disabled string `json:"disabled"`
	}
	rows := make([]row, 0, len(peers))
	for _, p := range peers {
		rows = append(rows, row{ID: p.ID, Name: p.Name, Address: p.AllowedAddress, Disabled: p.Disabled})
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"peers": rows})
}

func (h *Handler) WGCreate(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}

	pc, err := cl.CreatePeer(r.Context(), in.Name)
	h.audit(r, "wg.create", deviceID, in.Name, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	bundle, err := h.gen.PeerBundle(pc.Name, pc.Conf)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer bundle.Cleanup()

	files, err := bundleFiles(bundle)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"name":    pc.Name,
		"message": "wireguard peer " + pc.Name + " created",
		"files":   files,
	})
}

func (h *Handler) WGDisable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, peerID := vars["id"], vars["peerId"]
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	name, err := cl.DisablePeer(r.Context(), peerID)
	h.audit(r, "wg.disable", deviceID, peerID, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "peer " + name + " disabled"})
}

func (h *Handler) WGRegenerate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, peerID := vars["id"], vars["peerId"]
	cl, _, err := h.client(operatorID(r), deviceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	pc, err := cl.RegenerateConfig(r.Context(), peerID)
	h.audit(r, "wg.regenerate", deviceID, peerID, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	bundle, err := h.gen.PeerBundle(pc.Name, pc.Conf)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer bundle.Cleanup()

	files, err := bundleFiles(bundle)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    pc.Name,
		"message": "config for peer " + pc.Name + " regenerated",
		"files":   files,
	})
}

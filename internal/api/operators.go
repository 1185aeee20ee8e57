package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vpnhub/internal/models"
)

type operatorAddRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DeviceIDs []string `json:"device_ids"`
}

func (h *Handler) OperatorsList(w http.ResponseWriter, r *http.Request) {
	doc, err := h.reg.ListOperators(operatorID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) OperatorAdd(w http.ResponseWriter, r *http.Request) {
	var in operatorAddRequest
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	err := h.reg.AddScoped(operatorID(r), in.ID, in.Name, in.DeviceIDs)
	h.audit(r, "operator.add", "", in.ID, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "operator " + in.Name + " (" + in.ID + ") added",
	})
}

func (h *Handler) OperatorEditName(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	err := h.reg.EditScopedName(operatorID(r), id, in.Name)
	h.audit(r, "operator.rename", "", id, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "operator name updated"})
}

func (h *Handler) OperatorEditDevices(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in struct {
		DeviceIDs []string `json:"device_ids"`
	}
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	err := h.reg.EditScopedDevices(operatorID(r), id, in.DeviceIDs)
	h.audit(r, "operator.devices", "", id, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "operator device access updated"})
}

func (h *Handler) OperatorDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.reg.DeleteScoped(operatorID(r), id)
	h.audit(r, "operator.delete", "", id, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "operator " + id + " deleted"})
}

func (h *Handler) OperatorPromote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.reg.Promote(operatorID(r), id)
	h.audit(r, "operator.promote", "", id, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "operator " + id + " promoted to full tier"})
}

func (h *Handler) OperatorDemote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	err := h.reg.Demote(operatorID(r), id, in.Name)
	h.audit(r, "operator.demote", "", id, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "operator " + id + " demoted to scoped tier with empty device list",
	})
}

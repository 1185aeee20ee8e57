package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"vpnhub/internal/fault"
	"vpnhub/internal/models"
	"vpnhub/internal/registry"
)

type deviceAddRequest struct {
	Name         string   `json:"name"`
	Host         string   `json:"host"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	OVPNProfile  string   `json:"ovpn_profile"`
	WGInterface  string   `json:"wg_interface"`
	WGEndpoint   string   `json:"wg_endpoint"`
	WGAllowedIPs []string `json:"wg_allowed_ips"`
}

func (h *Handler) DevicesList(w http.ResponseWriter, r *http.Request) {
	refs, err := h.reg.ListDevicesFor(operatorID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"devices": refs})
}

func (h *Handler) DeviceGet(w http.ResponseWriter, r *http.Request) {
	dev, err := h.reg.GetDevice(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, dev)
}

func (h *Handler) DeviceAdd(w http.ResponseWriter, r *http.Request) {
	var in deviceAddRequest
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	id, err := h.reg.AddDevice(operatorID(r), registry.DeviceInput{
		Name:         in.Name,
		Host:         in.Host,
		Username:     in.Username,
		Password:     in.Password,
		OVPNProfile:  in.OVPNProfile,
		WGInterface:  in.WGInterface,
		WGEndpoint:   in.WGEndpoint,
		WGAllowedIPs: in.WGAllowedIPs,
	})
	h.audit(r, "device.add", id, in.Name, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": "device " + in.Name + " added with id " + id,
	})
}

type deviceEditRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (h *Handler) DeviceEdit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in deviceEditRequest
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}

	// wg_allowed_ips приходит списком, остальные поля — строкой
	var value any
	if in.Field == registry.FieldWGAllowedIPs {
		var list []string
		if err := json.Unmarshal(in.Value, &list); err != nil {
			writeErr(w, fault.Invalidf("field %s expects a list of strings", in.Field))
			return
		}
		value = list
	} else {
		var str string
		if err := json.Unmarshal(in.Value, &str); err != nil {
			writeErr(w, fault.Invalidf("field %s expects a string", in.Field))
			return
		}
		value = str
	}

	err := h.reg.EditDeviceField(operatorID(r), id, in.Field, value)
	h.audit(r, "device.edit", id, in.Field, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "field " + in.Field + " updated"})
}

func (h *Handler) DeviceDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.reg.DeleteDevice(operatorID(r), id)
	h.audit(r, "device.delete", id, "", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "device " + id + " deleted"})
}

func (h *Handler) TemplateUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	content, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErr(w, fault.Invalidf("read template: %v", err))
		return
	}
	if len(content) == 0 {
		writeErr(w, fault.Invalidf("empty template"))
		return
	}
	err = h.reg.UploadTemplate(operatorID(r), id, content)
	h.audit(r, "device.template", id, "", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": "template for " + id + " uploaded"})
}

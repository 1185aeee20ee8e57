package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vpnhub/internal/models"
)

// RegisterRoutes вешает всю поверхность ядра под /api/v1 за общим
// секретом. Идентификатор оператора обязателен для каждого вызова.
func RegisterRoutes(r *mux.Router, h *Handler, sharedSecret string) {
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(SharedSecretAuth(sharedSecret), requireOperator)

	// устройства
	v1.HandleFunc("/devices", h.DevicesList).Methods(http.MethodGet)
	v1.HandleFunc("/devices", h.DeviceAdd).Methods(http.MethodPost)
	v1.HandleFunc("/devices/{id}", h.DeviceGet).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}", h.DeviceEdit).Methods(http.MethodPatch)
	v1.HandleFunc("/devices/{id}", h.DeviceDelete).Methods(http.MethodDelete)
	v1.HandleFunc("/devices/{id}/template", h.TemplateUpload).Methods(http.MethodPut)

	// права операторов
	v1.HandleFunc("/operators", h.OperatorsList).Methods(http.MethodGet)
	v1.HandleFunc("/operators", h.OperatorAdd).Methods(http.MethodPost)
	v1.HandleFunc("/operators/{id}/name", h.OperatorEditName).Methods(http.MethodPatch)
	v1.HandleFunc("/operators/{id}/devices", h.OperatorEditDevices).Methods(http.MethodPatch)
	v1.HandleFunc("/operators/{id}", h.OperatorDelete).Methods(http.MethodDelete)
	v1.HandleFunc("/operators/{id}/promote", h.OperatorPromote).Methods(http.MethodPost)
	v1.HandleFunc("/operators/{id}/demote", h.OperatorDemote).Methods(http.MethodPost)

	// OpenVPN
	v1.HandleFunc("/devices/{id}/ovpn/active", h.OVPNActive).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}/ovpn/secrets", h.OVPNSecrets).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}/ovpn/secrets", h.OVPNCreate).Methods(http.MethodPost)
	v1.HandleFunc("/devices/{id}/ovpn/secrets/{name}/profile", h.OVPNProfile).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}/ovpn/secrets/{name}/deactivate", h.OVPNDeactivate).Methods(http.MethodPost)
	v1.HandleFunc("/devices/{id}/ovpn/secrets/{name}/disable", h.OVPNDisable).Methods(http.MethodPost)

	// WireGuard
	v1.HandleFunc("/devices/{id}/wg/peers", h.WGPeers).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{id}/wg/peers", h.WGCreate).Methods(http.MethodPost)
	v1.HandleFunc("/devices/{id}/wg/peers/{peerId}/disable", h.WGDisable).Methods(http.MethodPost)
	v1.HandleFunc("/devices/{id}/wg/peers/{peerId}/config", h.WGRegenerate).Methods(http.MethodPost)
}

// requireOperator отбрасывает запросы без X-Operator-Id.
func requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if operatorID(r) == "" {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "missing "+operatorHeader+" header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"vpnhub/internal/artifact"
	"vpnhub/internal/audit"
	"vpnhub/internal/fault"
	"vpnhub/internal/models"
	"vpnhub/internal/registry"
	"vpnhub/internal/routeros"
)

// Handler — JSON-поверхность ядра для слоя оркестрации: CRUD реестра,
// права операторов и операции над учётками обоих VPN.
type Handler struct {
	reg     *registry.Service
	tpl     *artifact.TemplateStore
	gen     *artifact.Generator
	rec     *audit.Recorder
	timeout time.Duration
	log     *logrus.Logger
}

func NewHandler(reg *registry.Service, tpl *artifact.TemplateStore, gen *artifact.Generator,
	rec *audit.Recorder, timeout time.Duration, log *logrus.Logger) *Handler {
	return &Handler{reg: reg, tpl: tpl, gen: gen, rec: rec, timeout: timeout, log: log}
}

// writeErr маппит таксономию ошибок ядра на HTTP-статусы. Текст ошибки
// всегда пригоден для показа оператору.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fault.ErrPermissionDenied):
		models.WriteProblem(w, http.StatusForbidden, "Permission Denied", err.Error())
	case errors.Is(err, fault.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, fault.ErrConflict):
		models.WriteProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, fault.ErrValidation), errors.Is(err, fault.ErrPrecondition):
		models.WriteProblem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, fault.ErrTransport):
		models.WriteProblem(w, http.StatusBadGateway, "Device Unreachable", err.Error())
	default:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fault.Invalidf("bad request body: %v", err)
	}
	return nil
}

// fileDTO — файл артефакта в JSON-ответе (содержимое в base64).
type fileDTO struct {
	Name    string `json:"name"`
	Content string `json:"content_b64"`
}

// bundleFiles выгружает файлы набора в DTO. Сам набор чистит вызывающий.
func bundleFiles(b *artifact.Bundle) ([]fileDTO, error) {
	out := make([]fileDTO, 0, len(b.Files))
	for i, f := range b.Files {
		raw, err := b.Read(i)
		if err != nil {
			return nil, err
		}
		out = append(out, fileDTO{Name: f.Name, Content: base64.StdEncoding.EncodeToString(raw)})
	}
	return out, nil
}

// client строит REST-клиента устройства, предварительно проверив, что
// устройство входит в allow-list оператора.
func (h *Handler) client(operatorID, deviceID string) (*routeros.Client, *models.Device, error) {
	allowed, err := h.reg.Access().AllowedDevices(operatorID)
	if err != nil {
		return nil, nil, err
	}
	ok := false
	for _, id := range allowed {
		if id == deviceID {
			ok = true
			break
		}
	}
	if !ok {
		return nil, nil, fault.Denied("device " + deviceID + " is not in your allow-list")
	}
	dev, err := h.reg.GetDevice(deviceID)
	if err != nil {
		return nil, nil, err
	}
	return routeros.NewClient(dev, h.timeout), dev, nil
}

func (h *Handler) audit(r *http.Request, action, deviceID, target string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, fault.ErrPermissionDenied):
		outcome = "denied"
	case err != nil:
		outcome = "error"
	}
	h.rec.Record(audit.Entry{
		Actor:    operatorID(r),
		Action:   action,
		DeviceID: deviceID,
		Target:   target,
		Outcome:  outcome,
	})
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnhub/internal/artifact"
	"vpnhub/internal/audit"
	"vpnhub/internal/models"
	"vpnhub/internal/registry"
)

const (
	testSecret = "s3cret-token"
	testBoss   = "100"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := registry.NewStore(fs, "data")
	require.NoError(t, err)
	require.NoError(t, store.SaveOperators(&models.OperatorDocument{
		Full:   []string{testBoss},
		Scoped: []models.ScopedOperator{},
	}))
	tpl, err := artifact.NewTemplateStore(fs, "templates")
	require.NoError(t, err)
	gen, err := artifact.NewGenerator(fs, "scratch")
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	reg := registry.NewService(store, registry.NewAccess(store), tpl, log)
	h := NewHandler(reg, tpl, gen, audit.New(nil, log), 5*time.Second, log)

	r := mux.NewRouter()
	RegisterRoutes(r, h, testSecret)
	return r
}

func call(r *mux.Router, method, path, operator string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	if operator != "" {
		req.Header.Set(operatorHeader, operator)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIRejectsBadBearer(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	req.Header.Set(operatorHeader, testBoss)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIRequiresOperatorHeader(t *testing.T) {
	r := newTestRouter(t)
	w := call(r, http.MethodGet, "/api/v1/devices", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeviceAddDeniedForUnknownOperator(t *testing.T) {
	r := newTestRouter(t)
	w := call(r, http.MethodPost, "/api/v1/devices", "nobody", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestDeviceLifecycleOverAPI(t *testing.T) {
	r := newTestRouter(t)

	w := call(r, http.MethodPost, "/api/v1/devices", testBoss, map[string]any{
		"name":           "office",
		"host":           "https://192.168.88.1",
		"username":       "api",
		"password":       "pass",
		"ovpn_profile":   "vpn-profile",
		"wg_interface":   "wg0",
		"wg_endpoint":    "vpn.example.com:13231",
		"wg_allowed_ips": []string{"0.0.0.0/0"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Contains(t, created.ID, "rtr_")

	// список для full-оператора
	w = call(r, http.MethodGet, "/api/v1/devices", testBoss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Devices []models.DeviceRef `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Devices, 1)
	assert.Equal(t, "office", listed.Devices[0].Name)

	// правка поля списком
	w = call(r, http.MethodPatch, "/api/v1/devices/"+created.ID, testBoss, map[string]any{
		"field": "wg_allowed_ips",
		"value": []string{"10.0.0.0/24"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// неизвестное поле — 422
	w = call(r, http.MethodPatch, "/api/v1/devices/"+created.ID, testBoss, map[string]any{
		"field": "bogus",
		"value": "v",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// удаление
	w = call(r, http.MethodDelete, "/api/v1/devices/"+created.ID, testBoss, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/api/v1/devices/"+created.ID, testBoss, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOperatorPromoteDemoteOverAPI(t *testing.T) {
	r := newTestRouter(t)

	w := call(r, http.MethodPost, "/api/v1/operators", testBoss, map[string]any{
		"id": "200", "name": "junior", "device_ids": []string{},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/v1/operators/200/promote", testBoss, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodPost, "/api/v1/operators/200/demote", testBoss, map[string]any{"name": "junior"})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/api/v1/operators", testBoss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc models.OperatorDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.NotContains(t, doc.Full, "200")
	require.Len(t, doc.Scoped, 1)
	assert.Empty(t, doc.Scoped[0].AllowedDevices)
}

func TestCredentialOpsDeniedOutsideAllowList(t *testing.T) {
	r := newTestRouter(t)

	w := call(r, http.MethodPost, "/api/v1/devices", testBoss, map[string]any{"name": "office"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// scoped-оператор без этого устройства в allow-list
	w = call(r, http.MethodPost, "/api/v1/operators", testBoss, map[string]any{
		"id": "200", "name": "junior", "device_ids": []string{},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = call(r, http.MethodGet, "/api/v1/devices/"+created.ID+"/ovpn/secrets", "200", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

package audit

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vpnhub/internal/models"
)

// Recorder пишет журнал действий операторов. БД опциональна (как и у
// всего приложения): без неё записи уходят только в обычный лог.
// Сбой записи аудита логируется и никогда не валит саму операцию.
type Recorder struct {
	db  *gorm.DB
	log *logrus.Logger
}

func New(db *gorm.DB, log *logrus.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Entry — одно событие для записи.
type Entry struct {
	Actor    string
	Action   string // device.add, ovpn.create, wg.disable, ...
	DeviceID string
	Target   string
	Outcome  string // ok | denied | error
	Details  map[string]any
}

func (r *Recorder) Record(e Entry) {
	r.log.WithFields(logrus.Fields{
		"actor":   e.Actor,
		"action":  e.Action,
		"device":  e.DeviceID,
		"target":  e.Target,
		"outcome": e.Outcome,
	}).Info("audit")

	if r.db == nil {
		return
	}
	var details datatypes.JSON
	if e.Details != nil {
		if raw, err := json.Marshal(e.Details); err == nil {
			details = raw
		}
	}
	row := models.AuditEntry{
		Actor:     e.Actor,
		Action:    e.Action,
		DeviceID:  e.DeviceID,
		Target:    e.Target,
		Outcome:   e.Outcome,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.Create(&row).Error; err != nil {
		r.log.Errorf("audit write failed: %v", err)
	}
}

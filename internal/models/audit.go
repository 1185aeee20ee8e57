package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry — запись журнала действий операторов. Пишется при каждой
// мутирующей операции, если сконфигурирована БД.
type AuditEntry struct {
	ID        uint           `gorm:"primaryKey"`
	Actor     string         `gorm:"size:64;index"` // идентификатор оператора
	Action    string         `gorm:"size:64;index"` // device.add, ovpn.create, ...
	DeviceID  string         `gorm:"size:64;index"` // пусто для операций над правами
	Target    string         `gorm:"size:255"`      // имя секрета/пира/оператора
	Outcome   string         `gorm:"size:32"`       // ok | denied | error
	Details   datatypes.JSON
	CreatedAt time.Time `gorm:"not null;index"`
}

package models

// ScopedOperator — оператор второго уровня с явным списком устройств.
type ScopedOperator struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AllowedDevices []string `json:"allowed_device_ids"`
}

// OperatorDocument — персистентный документ прав (operators.json).
// Инвариант: идентификатор оператора встречается не более чем в одном
// из двух уровней.
type OperatorDocument struct {
	Full   []string         `json:"full"`
	Scoped []ScopedOperator `json:"scoped"`
}

// HasFull сообщает, входит ли id в полный уровень.
func (d *OperatorDocument) HasFull(id string) bool {
	for _, v := range d.Full {
		if v == id {
			return true
		}
	}
	return false
}

// FindScoped возвращает индекс scoped-записи или -1.
func (d *OperatorDocument) FindScoped(id string) int {
	for i := range d.Scoped {
		if d.Scoped[i].ID == id {
			return i
		}
	}
	return -1
}

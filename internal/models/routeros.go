package models

// Wire-модели RouterOS REST API. Ключи — kebab-case, идентификаторы в
// поле ".id", булевы значения ходят строками "true"/"false" — RouterOS
// отвергает нативные JSON-булевы в PATCH, поэтому типы здесь строковые.

// PPPSecret — запись /rest/ppp/secret.
type PPPSecret struct {
	ID       string `json:".id,omitempty"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Service  string `json:"service,omitempty"`
	Profile  string `json:"profile,omitempty"`
	Disabled string `json:"disabled,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// PPPActive — запись /rest/ppp/active (живая сессия, не секрет).
type PPPActive struct {
	ID      string `json:".id,omitempty"`
	Name    string `json:"name"`
	Service string `json:"service,omitempty"`
	Address string `json:"address,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// WireGuardPeer — запись /rest/interface/wireguard/peers.
type WireGuardPeer struct {
	ID             string `json:".id,omitempty"`
	Name           string `json:"name,omitempty"`
	Interface      string `json:"interface,omitempty"`
	PublicKey      string `json:"public-key,omitempty"`
	PrivateKey     string `json:"private-key,omitempty"`
	AllowedAddress string `json:"allowed-address,omitempty"` // единичный /32
	Disabled       string `json:"disabled,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

// WireGuardInterface — запись /rest/interface/wireguard/{name}.
type WireGuardInterface struct {
	Name       string `json:"name,omitempty"`
	PublicKey  string `json:"public-key,omitempty"`
	ListenPort string `json:"listen-port,omitempty"`
}

// Credentials — пара логин/пароль, отдаваемая оператору.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

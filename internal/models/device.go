package models

// OpenVPNSettings — параметры, под которыми создаются новые ovpn-секреты.
type OpenVPNSettings struct {
	Profile string `json:"profile"`
}

// WireGuardSettings — параметры для синтеза клиентских конфигов.
type WireGuardSettings struct {
	InterfaceName string   `json:"interface_name"`
	Endpoint      string   `json:"endpoint"`    // host:port
	AllowedIPs    []string `json:"allowed_ips"` // CIDR-ы, порядок сохраняется
}

// Device — управляемый роутер с REST management API.
// Учётные данные API хранятся открытым текстом — осознанная слабость
// исходного дизайна, см. DESIGN.md.
type Device struct {
	ID        string            `json:"id"` // "rtr_xxxxxxxx", неизменяемый
	Name      string            `json:"name"`
	Host      string            `json:"host"` // базовый URL management API
	Username  string            `json:"username"`
	Password  string            `json:"password"`
	OpenVPN   OpenVPNSettings   `json:"openvpn"`
	WireGuard WireGuardSettings `json:"wireguard"`
}

// DeviceDocument — персистентный документ реестра устройств (devices.json).
// Читается и перезаписывается целиком.
type DeviceDocument struct {
	Devices []Device `json:"devices"`
}

// DeviceRef — краткая ссылка для списков.
type DeviceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

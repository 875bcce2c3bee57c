package model

// Notifications toggles alert kinds. Enabled is the master switch.
type Notifications struct {
	Enabled       bool `json:"enabled"`
	LidOpen       bool `json:"lidOpen"`
	TrashFull     bool `json:"trashFull"`
	DeviceOffline bool `json:"deviceOffline"`
}

type NotificationsPatch struct {
	Enabled       *bool `json:"enabled,omitempty" yaml:"enabled"`
	LidOpen       *bool `json:"lidOpen,omitempty" yaml:"lid_open"`
	TrashFull     *bool `json:"trashFull,omitempty" yaml:"trash_full"`
	DeviceOffline *bool `json:"deviceOffline,omitempty" yaml:"device_offline"`
}

func (n Notifications) Merge(p NotificationsPatch) Notifications {
	if p.Enabled != nil {
		n.Enabled = *p.Enabled
	}
	if p.LidOpen != nil {
		n.LidOpen = *p.LidOpen
	}
	if p.TrashFull != nil {
		n.TrashFull = *p.TrashFull
	}
	if p.DeviceOffline != nil {
		n.DeviceOffline = *p.DeviceOffline
	}
	return n
}

// DevicePolicy controls how collaborators talk to the device.
type DevicePolicy struct {
	AutoConnect         bool `json:"autoConnect"`
	ConnectionTimeoutMs int  `json:"connectionTimeout"`
	RetryAttempts       int  `json:"retryAttempts"`
}

type DevicePolicyPatch struct {
	AutoConnect         *bool `json:"autoConnect,omitempty" yaml:"auto_connect"`
	ConnectionTimeoutMs *int  `json:"connectionTimeout,omitempty" yaml:"connection_timeout_ms"`
	RetryAttempts       *int  `json:"retryAttempts,omitempty" yaml:"retry_attempts"`
}

func (d DevicePolicy) Merge(p DevicePolicyPatch) DevicePolicy {
	if p.AutoConnect != nil {
		d.AutoConnect = *p.AutoConnect
	}
	if p.ConnectionTimeoutMs != nil {
		d.ConnectionTimeoutMs = max(*p.ConnectionTimeoutMs, 1)
	}
	if p.RetryAttempts != nil {
		d.RetryAttempts = max(*p.RetryAttempts, 0)
	}
	return d
}

// AnalyticsPolicy controls usage recording and archive retention.
type AnalyticsPolicy struct {
	Enabled           bool `json:"enabled"`
	DataRetentionDays int  `json:"dataRetention"`
}

type AnalyticsPolicyPatch struct {
	Enabled           *bool `json:"enabled,omitempty" yaml:"enabled"`
	DataRetentionDays *int  `json:"dataRetention,omitempty" yaml:"data_retention_days"`
}

func (a AnalyticsPolicy) Merge(p AnalyticsPolicyPatch) AnalyticsPolicy {
	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}
	if p.DataRetentionDays != nil {
		a.DataRetentionDays = max(*p.DataRetentionDays, 1)
	}
	return a
}

// Units selects measurement units for presentation.
type Units struct {
	Distance    string `json:"distance"`
	Temperature string `json:"temperature"`
}

type UnitsPatch struct {
	Distance    *string `json:"distance,omitempty" yaml:"distance"`
	Temperature *string `json:"temperature,omitempty" yaml:"temperature"`
}

func (u Units) Merge(p UnitsPatch) Units {
	if p.Distance != nil {
		u.Distance = *p.Distance
	}
	if p.Temperature != nil {
		u.Temperature = *p.Temperature
	}
	return u
}

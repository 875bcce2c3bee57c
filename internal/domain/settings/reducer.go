package settings

import "github.com/QzDevz/TrashBin-IoT/internal/domain"

// Reduce applies action to state. It reports false for actions owned by
// another domain, leaving state unchanged.
func Reduce(state State, action domain.Action, _ domain.Env) (State, bool) {
	switch a := action.(type) {
	case UpdateTheme:
		state.Theme = a.Theme
	case UpdateNotifications:
		state.Notifications = state.Notifications.Merge(a.Patch)
	case UpdateDeviceSettings:
		state.Device = state.Device.Merge(a.Patch)
	case UpdateAnalyticsSettings:
		state.Analytics = state.Analytics.Merge(a.Patch)
	case UpdateLanguage:
		state.Language = a.Language
	case UpdateUnits:
		state.Units = state.Units.Merge(a.Patch)
	case Reset:
		return Defaults(), true
	default:
		return state, false
	}
	return state, true
}

package device

import (
	"github.com/QzDevz/TrashBin-IoT/internal/domain"
)

// Reduce applies action to state. It reports false for actions owned by
// another domain, leaving state unchanged.
func Reduce(state State, action domain.Action, env domain.Env) (State, bool) {
	switch a := action.(type) {
	case SetConnection:
		state.IsConnected = a.Connected
	case SetDeviceInfo:
		state.DeviceInfo = state.DeviceInfo.Merge(a.Patch)
	case UpdateStatus:
		state.Status = state.Status.Merge(a.Patch, env.Now)
	case UpdateSensors:
		state.Sensors = state.Sensors.Merge(a.Patch)
	case SetLoading:
		state.IsLoading = a.Loading
	case SetError:
		state.Error = domain.CloneMessage(a.Message)
	case Reset:
		return Initial(), true
	default:
		return state, false
	}
	return state, true
}

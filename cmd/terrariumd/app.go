package main

import (
	"time"

	"terrariumd/internal/bus"
	"terrariumd/internal/runtime"
	"terrariumd/internal/safety"
	"terrariumd/internal/watchdog"
	"terrariumd/pkg/types"
)

// app adapts the runtime services to the httpapi.Service interface.
type app struct {
	loop   *runtime.Loop
	safety *safety.Service
	dog    *watchdog.Watchdog
	bus    *bus.Bus
}

func (a *app) Status() types.StatusResponse {
	bs := a.bus.Stats()
	return types.StatusResponse{
		Loop:     a.loop.Status(),
		Watchdog: a.dog.Status(),
		Safety:   a.safety.Status(),
		Bus: types.BusStatus{
			EventsEmitted:      bs.EventsEmitted,
			HandlersInvoked:    bs.HandlersInvoked,
			HandlersRegistered: bs.HandlersRegistered,
			HandlerErrors:      bs.HandlerErrors,
			EventTypes:         len(a.bus.EventTypes()),
			TotalHandlers:      a.bus.TotalHandlers(),
		},
	}
}

func (a *app) ActiveAlerts() []types.AlertView {
	alerts := a.safety.ActiveAlerts()
	views := make([]types.AlertView, 0, len(alerts))
	for _, al := range alerts {
		views = append(views, types.AlertView{
			Kind:         al.Kind,
			Message:      al.Message,
			Severity:     string(al.Severity),
			Timestamp:    al.Timestamp.Unix(),
			Acknowledged: al.Acknowledged,
		})
	}
	return views
}

func (a *app) AcknowledgeAlert(index int) bool { return a.safety.AcknowledgeAlert(index) }

func (a *app) Violations(hours int) []types.ViolationView {
	violations := a.safety.Violations(time.Duration(hours) * time.Hour)
	views := make([]types.ViolationView, 0, len(violations))
	for _, v := range violations {
		views = append(views, types.ViolationView{
			Kind:      v.Kind,
			Parameter: v.Parameter,
			Value:     v.Value,
			Limit:     v.Limit,
			Severity:  string(v.Severity),
			Message:   v.Message,
			Timestamp: v.Timestamp.Unix(),
		})
	}
	return views
}

func (a *app) EmergencyStop() types.EmergencyStopView {
	armed, reason, since := a.safety.EmergencyStopped()
	view := types.EmergencyStopView{Armed: armed, Reason: reason}
	if armed {
		view.Since = since.Unix()
	}
	return view
}

func (a *app) ClearEmergencyStop() bool { return a.safety.ClearEmergencyStop() }

func (a *app) Ready() bool { return a.loop.Running() }

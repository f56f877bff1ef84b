package domain

// AlertStats is the dashboard summary. Resolved is Total - Pending, so it also
// counts acknowledged and false_alarm alerts.
type AlertStats struct {
	Total    int64 `json:"totalAlerts"`
	Pending  int64 `json:"pendingAlerts"`
	Today    int64 `json:"todayAlerts"`
	Resolved int64 `json:"resolvedAlerts"`
}

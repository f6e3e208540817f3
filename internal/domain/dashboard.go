package domain

// DashboardSummary agrega los contadores que muestra la pantalla inicial.
type DashboardSummary struct {
	Employees     int64 `json:"employees"`
	Departments   int64 `json:"departments"`
	PendingLeaves int64 `json:"pending_leaves"`
}

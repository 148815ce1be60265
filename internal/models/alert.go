package models

// AlertLevel grades how close an upcoming event is.
type AlertLevel string

const (
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelNotice  AlertLevel = "notice"
)

// EventAlert flags an earnings or rights date falling inside the alert window.
type EventAlert struct {
	Level     AlertLevel `json:"level"`
	Label     string     `json:"label"` // Japanese label, e.g. 第2四半期決算 or 権利付き最終日
	Date      string     `json:"date"`
	DaysUntil int        `json:"days_until"`
	Kind      EventKind  `json:"kind,omitempty"`
}

package recommend

// AlertKind classifies how an alert should be presented.
type AlertKind string

const (
	KindWarning AlertKind = "warning"
	KindDanger  AlertKind = "danger"
	KindInfo    AlertKind = "info"
)

// Valid reports whether k is a known alert kind.
func (k AlertKind) Valid() bool {
	switch k {
	case KindWarning, KindDanger, KindInfo:
		return true
	}
	return false
}

// Severity ranks how urgently an alert needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Outlook is the travel classification of the upcoming days.
type Outlook string

const (
	OutlookExcellent Outlook = "excellent"
	OutlookGood      Outlook = "good"
	OutlookFair      Outlook = "fair"
	OutlookPoor      Outlook = "poor"
	OutlookUnknown   Outlook = "unknown"
)

// Valid reports whether o is a known outlook.
func (o Outlook) Valid() bool {
	switch o {
	case OutlookExcellent, OutlookGood, OutlookFair, OutlookPoor, OutlookUnknown:
		return true
	}
	return false
}

// Alert is a single weather notice produced by one evaluation.
type Alert struct {
	Kind     AlertKind `json:"type"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// AgricultureBundle is the farmer-facing result of an evaluation.
type AgricultureBundle struct {
	Alerts             []Alert  `json:"alerts"`
	Recommendations    []string `json:"recommendations"`
	Tasks              []string `json:"tasks"`
	SuitableActivities []string `json:"suitable_activities"`
	CropAdvice         []string `json:"crop_advice"`
}

// TravelBundle is the traveller-facing result of an evaluation.
type TravelBundle struct {
	Alerts          []Alert  `json:"alerts"`
	Recommendations []string `json:"recommendations"`
	PackingList     []string `json:"packing_list"`
	TravelOutlook   Outlook  `json:"travel_outlook"`
	BestTimes       []string `json:"best_times"`
}

package logger

// Intention tags what a log line is about, independent of its level.
// The console handler turns it into a short marker; file logs keep it as
// the structured "intention" attribute.
type Intention string

const (
	IntentionScan    Intention = "scan"
	IntentionInject  Intention = "inject"
	IntentionSkip    Intention = "skip"
	IntentionWatch   Intention = "watch"
	IntentionSession Intention = "session"
	IntentionStatus  Intention = "status"
	IntentionSuccess Intention = "success"
	IntentionDebug   Intention = "debug"
	IntentionConfig  Intention = "config"
	IntentionWarning Intention = "warning" // level handles emphasis
	IntentionError   Intention = "error"   // level handles emphasis
)

// markerFor returns the console prefix for an intention.
func markerFor(i Intention) string {
	switch i {
	case IntentionScan:
		return "🔍"
	case IntentionInject:
		return "📌"
	case IntentionSkip:
		return "⏭️"
	case IntentionWatch:
		return "👀"
	case IntentionSession:
		return "🗂️"
	case IntentionStatus:
		return "ℹ️"
	case IntentionSuccess:
		return "✅"
	case IntentionDebug:
		return "🛠️"
	case IntentionConfig:
		return "⚙️"
	default:
		return "➤"
	}
}

package worker

import "time"

// Notification is the payload shown for a push message.
type Notification struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Badge   string               `json:"badge"`
	Vibrate []int                `json:"vibrate"`
	Data    NotificationData     `json:"data"`
	Actions []NotificationAction `json:"actions"`
}

// NotificationData is attached to a notification for click handling.
type NotificationData struct {
	DateOfArrival int64 `json:"dateOfArrival"`
	PrimaryKey    int   `json:"primaryKey"`
}

// NotificationAction is a button on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
}

// Notification actions.
const (
	ActionExplore = "explore"
	ActionClose   = "close"
)

// PushNotification builds the notification for a push message arriving at now.
func PushNotification(now time.Time) Notification {
	return Notification{
		Title:   "Portfolio Update",
		Body:    "New project added to portfolio!",
		Icon:    "/icons/icon-192x192.png",
		Badge:   "/icons/icon-72x72.png",
		Vibrate: []int{200, 100, 200},
		Data: NotificationData{
			DateOfArrival: now.UnixMilli(),
			PrimaryKey:    1,
		},
		Actions: []NotificationAction{
			{Action: ActionExplore, Title: "View Projects", Icon: "/icons/projects-icon.png"},
			{Action: ActionClose, Title: "Close", Icon: "/icons/close-icon.png"},
		},
	}
}

// NotificationClickTarget returns the page to open for a notification
// click. ok is false when the click only closes the notification.
func NotificationClickTarget(action string) (target string, ok bool) {
	switch action {
	case ActionExplore:
		return "/projects", true
	case ActionClose:
		return "", false
	default:
		return "/", true
	}
}

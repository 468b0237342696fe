package domain

// Channel is the outbound message channel understood by the panel UI.
type Channel string

const (
	// ChannelUpdateUI carries a Snapshot or a ScanFailure.
	ChannelUpdateUI Channel = "update_ui"
	// ChannelNotification carries a Notification.
	ChannelNotification Channel = "notification"
)

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

// Notification is a toast-style message for the user.
type Notification struct {
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
}

// Message is a single outbound message for the panel.
type Message struct {
	Channel Channel `json:"channel"`
	Payload any     `json:"payload"`
}

// UpdateUI builds an update_ui message carrying a snapshot.
func UpdateUI(snap *Snapshot) Message {
	return Message{Channel: ChannelUpdateUI, Payload: snap}
}

// UpdateUIError builds an update_ui message reporting that the table could not be read.
func UpdateUIError(msg string) Message {
	return Message{Channel: ChannelUpdateUI, Payload: ScanFailure{Error: msg}}
}

// Notify builds a notification message.
func Notify(kind NotificationType, msg string) Message {
	return Message{Channel: ChannelNotification, Payload: Notification{Message: msg, Type: kind}}
}

// Notification returns the payload as a Notification, if it is one.
func (m Message) Notification() (Notification, bool) {
	n, ok := m.Payload.(Notification)
	return n, ok
}

// Snapshot returns the payload as a Snapshot, if it is one.
func (m Message) Snapshot() (*Snapshot, bool) {
	s, ok := m.Payload.(*Snapshot)
	return s, ok && s != nil
}

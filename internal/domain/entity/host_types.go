package entity

// HostContext is the snapshot the host client supplies when the session loads.
type HostContext struct {
	User     User     `json:"user"`
	Client   Client   `json:"client"`
	Features Features `json:"features"`
}

// User identifies the social account running the mini app.
type User struct {
	FID         int64     `json:"fid"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	PfpURL      string    `json:"pfpUrl,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// Location is the optional place a user shares with the host.
type Location struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// Client describes the host client and the app's standing within it.
type Client struct {
	PlatformType        string               `json:"platformType,omitempty"`
	ClientFID           int64                `json:"clientFid"`
	Added               bool                 `json:"added"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
	SafeAreaInsets      *SafeAreaInsets      `json:"safeAreaInsets,omitempty"`
}

// SafeAreaInsets are the screen insets reported by mobile hosts.
type SafeAreaInsets struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Features are the capability flags of the host client.
type Features struct {
	Haptics                   bool `json:"haptics"`
	CameraAndMicrophoneAccess bool `json:"cameraAndMicrophoneAccess,omitempty"`
}

// NotificationDetails is the opaque token and endpoint used to deliver notifications to a user.
type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Clone returns a deep copy so callers can't mutate session state.
func (c HostContext) Clone() HostContext {
	out := c
	if c.User.Location != nil {
		loc := *c.User.Location
		out.User.Location = &loc
	}
	if c.Client.NotificationDetails != nil {
		nd := *c.Client.NotificationDetails
		out.Client.NotificationDetails = &nd
	}
	if c.Client.SafeAreaInsets != nil {
		insets := *c.Client.SafeAreaInsets
		out.Client.SafeAreaInsets = &insets
	}
	return out
}

// HostEventKind names an event the host emits.
type HostEventKind string

// Event kinds the session subscribes to.
const (
	EventMiniAppAdded          HostEventKind = "miniAppAdded"
	EventMiniAppAddRejected    HostEventKind = "miniAppAddRejected"
	EventMiniAppRemoved        HostEventKind = "miniAppRemoved"
	EventNotificationsEnabled  HostEventKind = "notificationsEnabled"
	EventNotificationsDisabled HostEventKind = "notificationsDisabled"
)

// HostEventKinds lists every event kind the session listens to.
var HostEventKinds = []HostEventKind{
	EventMiniAppAdded,
	EventMiniAppAddRejected,
	EventMiniAppRemoved,
	EventNotificationsEnabled,
	EventNotificationsDisabled,
}

// HostEvent is one event emitted by the host. Fields are set depending on Kind.
type HostEvent struct {
	Kind                HostEventKind        `json:"event"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
	Reason              string               `json:"reason,omitempty"`
}

// AddFrameResult is what the host returns when the user adds the mini app.
type AddFrameResult struct {
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
}

// SignInResult carries the sign-in message and signature returned by the host.
type SignInResult struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

package port

import "solana-miniapp/internal/domain/entity"

// AddMiniAppKind tells the add-mini-app outcomes apart.
type AddMiniAppKind string

const (
	AddedWithNotifications    AddMiniAppKind = "added_with_notifications"
	AddedWithoutNotifications AddMiniAppKind = "added_without_notifications"
	RejectedByUser            AddMiniAppKind = "rejected_by_user"
	InvalidManifest           AddMiniAppKind = "invalid_manifest"
	AddFailed                 AddMiniAppKind = "failed"
)

// AddMiniAppOutcome is the result of asking the host to add the app.
type AddMiniAppOutcome struct {
	Kind    AddMiniAppKind `json:"kind"`
	Message string         `json:"message"`
}

// WalletView describes the connected account.
type WalletView struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	Short     string `json:"short,omitempty"`
}

// View is the presentation model served at /api/state.
type View struct {
	Loading             bool                        `json:"loading"`
	Context             *entity.HostContext         `json:"context,omitempty"`
	Added               bool                        `json:"added"`
	LastEvent           string                      `json:"lastEvent"`
	NotificationDetails *entity.NotificationDetails `json:"notificationDetails,omitempty"`
	Wallet              WalletView                  `json:"wallet"`

	SignMessage      entity.ResultView `json:"signMessage"`
	SendNative       entity.ResultView `json:"sendNative"`
	SendNativeTxURL  string            `json:"sendNativeExplorerUrl,omitempty"`
	SendToken        entity.ResultView `json:"sendToken"`
	SendTokenTxURL   string            `json:"sendTokenExplorerUrl,omitempty"`
	AddFrameResult   string            `json:"addFrameResult"`
	NotificationSent string            `json:"sendNotificationResult"`
	Tokens           []string          `json:"tokens"`
}

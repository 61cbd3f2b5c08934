package domain

import "fmt"

// Keys of the persisted preference store.
const (
	KeySoundEnabled           = "soundEnabled"
	KeyNotificationsEnabled   = "notificationsEnabled"
	KeyNotificationPermission = "notificationPermission"
)

// PreferenceKeys lists every key the store accepts.
var PreferenceKeys = []string{
	KeySoundEnabled,
	KeyNotificationsEnabled,
	KeyNotificationPermission,
}

// EffectPreference holds the two expiry-effect switches.
type EffectPreference struct {
	SoundEnabled         bool
	NotificationsEnabled bool
}

// DefaultEffectPreference returns the first-run switches: sound on,
// notifications off.
func DefaultEffectPreference() EffectPreference {
	return EffectPreference{SoundEnabled: true}
}

// Permission is the desktop-notification permission decision.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	// PermissionPrompt means the user has to be asked before a decision exists.
	PermissionPrompt Permission = "prompt"
)

// ParsePermission parses a stored permission value. Unknown or empty
// values read as PermissionDefault.
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted, PermissionDenied:
		return Permission(s)
	default:
		return PermissionDefault
	}
}

// FormatBool renders a preference flag as stored: the literal text
// "true" or "false".
func FormatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// ValidatePreference checks a key/value pair before it is stored.
func ValidatePreference(key, value string) error {
	switch key {
	case KeySoundEnabled, KeyNotificationsEnabled:
		if value != "true" && value != "false" {
			return fmt.Errorf("%s=%q: %w", key, value, ErrInvalidPreferenceValue)
		}
	case KeyNotificationPermission:
		switch Permission(value) {
		case PermissionDefault, PermissionGranted, PermissionDenied:
		default:
			return fmt.Errorf("%s=%q: %w", key, value, ErrInvalidPreferenceValue)
		}
	default:
		return fmt.Errorf("%q: %w", key, ErrUnknownPreference)
	}
	return nil
}

// ToggleAppearance is the icon and hover title of a toggle button.
type ToggleAppearance struct {
	Icon  string
	Title string
}

// SoundAppearance returns the sound button look for the given state.
func SoundAppearance(enabled bool) ToggleAppearance {
	if enabled {
		return ToggleAppearance{Icon: "🔊", Title: "Disable the alarm sound"}
	}
	return ToggleAppearance{Icon: "🔇", Title: "Enable the alarm sound"}
}

// NotificationAppearance returns the notification button look for the
// given state.
func NotificationAppearance(enabled bool) ToggleAppearance {
	if enabled {
		return ToggleAppearance{Icon: "🔔", Title: "Disable notifications"}
	}
	return ToggleAppearance{Icon: "🔕", Title: "Enable notifications"}
}

// ToggleOutcome reports what a notification toggle did.
type ToggleOutcome int

const (
	// ToggleApplied means the switch flipped and was persisted.
	ToggleApplied ToggleOutcome = iota
	// TogglePending means the user has to answer a permission prompt;
	// ResolvePermission completes the toggle.
	TogglePending
	// ToggleIgnored means a permission request is already in flight.
	ToggleIgnored
	// ToggleDenied means permission was refused and nothing changed.
	ToggleDenied
)

// String returns a human-readable label.
func (o ToggleOutcome) String() string {
	switch o {
	case ToggleApplied:
		return "applied"
	case TogglePending:
		return "pending"
	case ToggleIgnored:
		return "ignored"
	case ToggleDenied:
		return "denied"
	default:
		return "unknown"
	}
}

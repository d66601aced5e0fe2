// Package core provides the AltSource document model and the operations
// over it: normalization, validation, import/export and immutable mutations.
package core

import "encoding/json"

// DefaultTintColor is the tint the builder assigns to new sources, apps and
// news items.
const DefaultTintColor = "#6366f1"

// NoApp is the sentinel editors use to mean "not linked to an app". It is
// never persisted; NewsItem.AppID is left empty instead.
const NoApp = "none"

// Source is the root of an AltSource document.
type Source struct {
	Name         string     `json:"name" validate:"notblank"`
	Subtitle     string     `json:"subtitle,omitempty"`
	Description  string     `json:"description,omitempty"`
	IconURL      string     `json:"iconURL,omitempty"`
	HeaderURL    string     `json:"headerURL,omitempty"`
	Website      string     `json:"website,omitempty"`
	TintColor    string     `json:"tintColor,omitempty"`
	FeaturedApps []string   `json:"featuredApps,omitempty"`
	Apps         []App      `json:"apps" validate:"min=1,dive"`
	News         []NewsItem `json:"news"`

	// Extra holds keys this model does not declare. They are written back
	// after the declared fields.
	Extra map[string]json.RawMessage `json:"-"`
}

// App is an installable application listed by a source.
type App struct {
	Name                 string          `json:"name" validate:"notblank"`
	BundleIdentifier     string          `json:"bundleIdentifier" validate:"notblank"`
	DeveloperName        string          `json:"developerName" validate:"notblank"`
	Subtitle             string          `json:"subtitle,omitempty"`
	LocalizedDescription string          `json:"localizedDescription,omitempty"`
	IconURL              string          `json:"iconURL,omitempty"`
	TintColor            string          `json:"tintColor,omitempty"`
	Screenshots          *Screenshots    `json:"screenshots,omitempty"`
	Versions             []AppVersion    `json:"versions" validate:"min=1"`
	AppPermissions       *AppPermissions `json:"appPermissions,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// AppVersion is a single downloadable build of an app. Index 0 of
// App.Versions is the current version by convention.
type AppVersion struct {
	Version              string `json:"version"`
	Date                 string `json:"date"`
	Size                 int64  `json:"size"`
	DownloadURL          string `json:"downloadURL"`
	LocalizedDescription string `json:"localizedDescription,omitempty"`
	MinOSVersion         string `json:"minOSVersion,omitempty"`
	MaxOSVersion         string `json:"maxOSVersion,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Screenshot is an image entry. Legacy documents may carry a bare URL string
// in place of the object; both decode to this form.
type Screenshot struct {
	ImageURL string `json:"imageURL"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

// Screenshots is either a flat list of images or a per-device grouping.
// When Devices is non-nil the grouped form is used and Images is ignored.
type Screenshots struct {
	Images  []Screenshot
	Devices *DeviceScreenshots
}

// DeviceScreenshots groups screenshots by device family.
type DeviceScreenshots struct {
	IPhone []Screenshot `json:"iphone,omitempty"`
	IPad   []Screenshot `json:"ipad,omitempty"`
}

// ScreenshotDevice selects one device list of an app's screenshots.
type ScreenshotDevice string

const (
	DeviceIPhone ScreenshotDevice = "iphone"
	DeviceIPad   ScreenshotDevice = "ipad"
)

// AppPermissions lists the entitlements an app requests and the privacy
// usage descriptions it shows.
type AppPermissions struct {
	Entitlements []string          `json:"entitlements"`
	Privacy      map[string]string `json:"privacy"`
}

// NewsItem is an announcement shown by sideloading clients.
type NewsItem struct {
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
	Caption    string `json:"caption"`
	Date       string `json:"date"`
	TintColor  string `json:"tintColor,omitempty"`
	ImageURL   string `json:"imageURL,omitempty"`
	Notify     *bool  `json:"notify,omitempty"`
	URL        string `json:"url,omitempty"`
	AppID      string `json:"appID,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// NewSource returns the document the builder starts from.
func NewSource() Source {
	return Source{
		TintColor:    DefaultTintColor,
		FeaturedApps: []string{},
		Apps:         []App{},
		News:         []NewsItem{},
	}
}

// Package altsource builds, validates and exports AltSource repository
// manifests, the JSON catalogs sideloading clients read to list apps,
// their versions and news.
//
// A document is edited through pure functions that return new values, so a
// host keeps exactly one current Source and replaces it after every edit:
//
//	import "github.com/git-pkgs/altsource"
//
//	src := altsource.NewSource()
//	src, i := altsource.AddApp(src)
//	app := src.Apps[i]
//	app.Name = "Example"
//	app.BundleIdentifier = "com.example.app"
//	app.DeveloperName = "Example Dev"
//	src, _ = altsource.UpdateApp(src, i, app)
//
//	if problems := altsource.Validate(src); !problems.Valid() {
//		for _, p := range problems {
//			fmt.Println(p)
//		}
//	}
//
//	data, err := altsource.Export(src)
//
// Export writes the normalized view: empty strings, nulls and empty
// collections are dropped, and keys follow the model's declared order.
// Import is permissive and only rejects text that is not a JSON object.
package altsource

import (
	"time"

	"github.com/git-pkgs/altsource/internal/core"
)

// Re-export types from internal/core
type (
	// Source is the root of an AltSource document.
	Source = core.Source

	// App is an installable application.
	App = core.App

	// AppVersion is a downloadable build of an App.
	AppVersion = core.AppVersion

	// Screenshot is an image entry of an App.
	Screenshot = core.Screenshot

	// Screenshots is the flat or per-device screenshot union.
	Screenshots = core.Screenshots

	// DeviceScreenshots groups screenshots by device family.
	DeviceScreenshots = core.DeviceScreenshots

	// ScreenshotDevice selects the device list a screenshot edit applies to.
	ScreenshotDevice = core.ScreenshotDevice

	// AppPermissions lists entitlements and privacy usage descriptions.
	AppPermissions = core.AppPermissions

	// NewsItem is an announcement.
	NewsItem = core.NewsItem

	// Problems is the result of Validate.
	Problems = core.Problems

	// Object is an order-preserving JSON object produced by NormalizeSource.
	Object = core.Object

	// Member is a key/value pair of an Object.
	Member = core.Member
)

// Re-export constants
const (
	DefaultTintColor = core.DefaultTintColor
	NoApp            = core.NoApp
	DeviceIPhone     = core.DeviceIPhone
	DeviceIPad       = core.DeviceIPad
)

// Re-export errors
var (
	ErrInvalidJSON     = core.ErrInvalidJSON
	ErrIndexOutOfRange = core.ErrIndexOutOfRange
	ErrUnknownField    = core.ErrUnknownField
	ErrUnknownDevice   = core.ErrUnknownDevice
)

// Error types
type (
	ParseError      = core.ParseError
	IndexError      = core.IndexError
	FieldError      = core.FieldError
	ValidationError = core.ValidationError
)

// NewSource returns an empty document with the default tint color.
func NewSource() Source {
	return core.NewSource()
}

// Import reads a document from JSON text. It fails only with a *ParseError
// when the text is not a JSON object.
func Import(data []byte) (Source, error) {
	return core.Import(data)
}

// Export returns the normalized document as indented JSON.
func Export(src Source) ([]byte, error) {
	return core.Export(src)
}

// ExportCompact returns the normalized document as compact JSON.
func ExportCompact(src Source) ([]byte, error) {
	return core.ExportCompact(src)
}

// Normalize prunes empty values from a JSON value tree. The second result
// is false when the value itself is empty.
func Normalize(v any) (any, bool) {
	return core.Normalize(v)
}

// NormalizeSource returns the export view of src without modifying it.
func NormalizeSource(src Source) (Object, error) {
	return core.NormalizeSource(src)
}

// Validate returns the problems that keep src from being publishable.
func Validate(src Source) Problems {
	return core.Validate(src)
}

// ResolveApp returns the first app with the given bundle identifier.
func ResolveApp(src Source, bundleID string) (App, bool) {
	return core.ResolveApp(src, bundleID)
}

// IsFeatured reports whether bundleID is a featured app.
func IsFeatured(src Source, bundleID string) bool {
	return core.IsFeatured(src, bundleID)
}

// FeaturedApps resolves the featured identifiers to apps, skipping dangling ones.
func FeaturedApps(src Source) []App {
	return core.FeaturedApps(src)
}

// ResolveNewsApp returns the app a news item links to.
func ResolveNewsApp(src Source, item NewsItem) (App, bool) {
	return core.ResolveNewsApp(src, item)
}

// LatestVersion returns the first version of app.
func LatestVersion(app App) (AppVersion, bool) {
	return core.LatestVersion(app)
}

// SetField returns a copy of entity with the field named key (its JSON
// name) set to value.
func SetField[T any](entity T, key string, value any) (T, error) {
	return core.SetField(entity, key, value)
}

// NewApp returns an app with empty required fields and collections.
func NewApp() App {
	return core.NewApp()
}

// AddApp appends a new app and returns its index.
func AddApp(src Source) (Source, int) {
	return core.AddApp(src)
}

// UpdateApp replaces the app at index.
func UpdateApp(src Source, index int, app App) (Source, error) {
	return core.UpdateApp(src, index, app)
}

// DuplicateApp appends a copy of the app at index.
func DuplicateApp(src Source, index int) (Source, error) {
	return core.DuplicateApp(src, index)
}

// DeleteApp removes the app at index.
func DeleteApp(src Source, index int) (Source, error) {
	return core.DeleteApp(src, index)
}

// MoveApp moves an app to a new position.
func MoveApp(src Source, from, to int) (Source, error) {
	return core.MoveApp(src, from, to)
}

// NewNewsItem returns a news item with editor defaults for now.
func NewNewsItem(now time.Time) NewsItem {
	return core.NewNewsItem(now)
}

// AddNews appends an empty news item and returns its index.
func AddNews(src Source) (Source, int) {
	return core.AddNews(src)
}

// AddNewsItem appends item and returns its index.
func AddNewsItem(src Source, item NewsItem) (Source, int) {
	return core.AddNewsItem(src, item)
}

// UpdateNews replaces the news item at index.
func UpdateNews(src Source, index int, item NewsItem) (Source, error) {
	return core.UpdateNews(src, index, item)
}

// DuplicateNews appends a copy of the news item at index.
func DuplicateNews(src Source, index int) (Source, error) {
	return core.DuplicateNews(src, index)
}

// DeleteNews removes the news item at index.
func DeleteNews(src Source, index int) (Source, error) {
	return core.DeleteNews(src, index)
}

// MoveNews moves a news item to a new position.
func MoveNews(src Source, from, to int) (Source, error) {
	return core.MoveNews(src, from, to)
}

// SetFeatured adds or removes bundleID from the featured apps.
func SetFeatured(src Source, bundleID string, featured bool) Source {
	return core.SetFeatured(src, bundleID, featured)
}

// NewVersion returns a version with editor defaults for now.
func NewVersion(now time.Time) AppVersion {
	return core.NewVersion(now)
}

// AddVersion makes v the app's current version.
func AddVersion(app App, v AppVersion) App {
	return core.AddVersion(app, v)
}

// UpdateVersion replaces the version at index.
func UpdateVersion(app App, index int, v AppVersion) (App, error) {
	return core.UpdateVersion(app, index, v)
}

// DeleteVersion removes the version at index.
func DeleteVersion(app App, index int) (App, error) {
	return core.DeleteVersion(app, index)
}

// AddScreenshot appends a screenshot to the device's list.
func AddScreenshot(app App, device ScreenshotDevice, s Screenshot) (App, error) {
	return core.AddScreenshot(app, device, s)
}

// UpdateScreenshot replaces the device's screenshot at index.
func UpdateScreenshot(app App, device ScreenshotDevice, index int, s Screenshot) (App, error) {
	return core.UpdateScreenshot(app, device, index, s)
}

// DeleteScreenshot removes the device's screenshot at index.
func DeleteScreenshot(app App, device ScreenshotDevice, index int) (App, error) {
	return core.DeleteScreenshot(app, device, index)
}

// AddEntitlement adds value unless already present.
func AddEntitlement(p AppPermissions, value string) AppPermissions {
	return core.AddEntitlement(p, value)
}

// RemoveEntitlement removes value.
func RemoveEntitlement(p AppPermissions, value string) AppPermissions {
	return core.RemoveEntitlement(p, value)
}

// SetPrivacyDescription inserts or overwrites the description for key.
func SetPrivacyDescription(p AppPermissions, key, value string) AppPermissions {
	return core.SetPrivacyDescription(p, key, value)
}

// RemovePrivacyDescription removes the description for key.
func RemovePrivacyDescription(p AppPermissions, key string) AppPermissions {
	return core.RemovePrivacyDescription(p, key)
}

// FormatSize renders a byte count, e.g. "1.5 MB".
func FormatSize(bytes int64) string {
	return core.FormatSize(bytes)
}

// NormalizeHex returns a hex color as upper-case "#RRGGBB".
func NormalizeHex(s string) (string, bool) {
	return core.NormalizeHex(s)
}

// Filename suggests a download file name for the exported source.
func Filename(src Source) string {
	return core.Filename(src)
}

// Inventory lists a Package URL for every app version.
func Inventory(src Source) []string {
	return core.Inventory(src)
}

// PermissionOption is a well-known permission key with a display label.
type PermissionOption = core.PermissionOption

// Permission catalogs
var (
	CommonEntitlements = core.CommonEntitlements
	CommonPrivacyKeys  = core.CommonPrivacyKeys
)

// AvailableEntitlements returns the common entitlements p does not list yet.
func AvailableEntitlements(p AppPermissions) []PermissionOption {
	return core.AvailableEntitlements(p)
}

// AvailablePrivacyKeys returns the common privacy keys p does not describe yet.
func AvailablePrivacyKeys(p AppPermissions) []PermissionOption {
	return core.AvailablePrivacyKeys(p)
}

// Encode renders src as indented JSON without normalizing it, for saving
// drafts. Import reads it back.
func Encode(src Source) ([]byte, error) {
	return core.Encode(src)
}

package core

import "slices"

// PermissionOption is a well-known permission key with a display label.
type PermissionOption struct {
	Value string
	Label string
}

// CommonEntitlements are the entitlements editors offer for quick insertion.
var CommonEntitlements = []PermissionOption{
	{Value: "com.apple.security.application-groups", Label: "App Groups"},
	{Value: "com.apple.developer.siri", Label: "Siri"},
	{Value: "com.apple.developer.healthkit", Label: "HealthKit"},
	{Value: "com.apple.developer.game-center", Label: "Game Center"},
	{Value: "com.apple.developer.networking.wifi-info", Label: "WiFi Info"},
	{Value: "com.apple.developer.nfc.readersession.formats", Label: "NFC"},
	{Value: "com.apple.developer.associated-domains", Label: "Associated Domains"},
}

// CommonPrivacyKeys are the Info.plist usage description keys editors offer.
var CommonPrivacyKeys = []PermissionOption{
	{Value: "NSPhotoLibraryUsageDescription", Label: "Photo Library"},
	{Value: "NSCameraUsageDescription", Label: "Camera"},
	{Value: "NSMicrophoneUsageDescription", Label: "Microphone"},
	{Value: "NSLocationWhenInUseUsageDescription", Label: "Location (When In Use)"},
	{Value: "NSLocationAlwaysUsageDescription", Label: "Location (Always)"},
	{Value: "NSContactsUsageDescription", Label: "Contacts"},
	{Value: "NSCalendarsUsageDescription", Label: "Calendars"},
	{Value: "NSLocalNetworkUsageDescription", Label: "Local Network"},
	{Value: "NSBluetoothAlwaysUsageDescription", Label: "Bluetooth"},
	{Value: "NSFaceIDUsageDescription", Label: "Face ID"},
}

// AvailableEntitlements returns the common entitlements p does not list yet.
func AvailableEntitlements(p AppPermissions) []PermissionOption {
	var out []PermissionOption
	for _, opt := range CommonEntitlements {
		if !slices.Contains(p.Entitlements, opt.Value) {
			out = append(out, opt)
		}
	}
	return out
}

// AvailablePrivacyKeys returns the common privacy keys without a non-empty
// description in p.
func AvailablePrivacyKeys(p AppPermissions) []PermissionOption {
	var out []PermissionOption
	for _, opt := range CommonPrivacyKeys {
		if p.Privacy[opt.Value] == "" {
			out = append(out, opt)
		}
	}
	return out
}

// EntitlementLabel returns the display label of a common entitlement.
func EntitlementLabel(value string) (string, bool) {
	i := slices.IndexFunc(CommonEntitlements, func(o PermissionOption) bool {
		return o.Value == value
	})
	if i < 0 {
		return "", false
	}
	return CommonEntitlements[i].Label, true
}

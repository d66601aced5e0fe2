package core

import "testing"

func TestAvailableEntitlements(t *testing.T) {
	p := AppPermissions{Entitlements: []string{"com.apple.developer.siri"}}

	got := AvailableEntitlements(p)
	if len(got) != len(CommonEntitlements)-1 {
		t.Fatalf("got %d entitlements, want %d", len(got), len(CommonEntitlements)-1)
	}
	for _, opt := range got {
		if opt.Value == "com.apple.developer.siri" {
			t.Errorf("siri should not be offered once present")
		}
	}

	if got := AvailableEntitlements(AppPermissions{}); len(got) != len(CommonEntitlements) {
		t.Errorf("empty permissions: got %d, want %d", len(got), len(CommonEntitlements))
	}
}

func TestAvailablePrivacyKeys(t *testing.T) {
	p := AppPermissions{Privacy: map[string]string{
		"NSCameraUsageDescription":     "Scan codes",
		"NSMicrophoneUsageDescription": "",
	}}

	got := AvailablePrivacyKeys(p)
	if len(got) != len(CommonPrivacyKeys)-1 {
		t.Fatalf("got %d keys, want %d", len(got), len(CommonPrivacyKeys)-1)
	}
	for _, opt := range got {
		if opt.Value == "NSCameraUsageDescription" {
			t.Errorf("camera key should not be offered once described")
		}
	}
}

func TestEntitlementLabel(t *testing.T) {
	if label, ok := EntitlementLabel("com.apple.developer.nfc.readersession.formats"); !ok || label != "NFC" {
		t.Errorf("got %q, %v", label, ok)
	}
	if _, ok := EntitlementLabel("com.example.custom"); ok {
		t.Error("custom entitlement should have no label")
	}
}

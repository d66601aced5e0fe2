package core

import (
	packageurl "github.com/package-url/packageurl-go"
)

// Inventory lists a generic Package URL for every app version, in app then
// version order, e.g. "pkg:generic/com.example.app@1.2?download_url=...".
// Apps without a bundle identifier are skipped.
func Inventory(src Source) []string {
	var purls []string
	for _, app := range src.Apps {
		if app.BundleIdentifier == "" {
			continue
		}
		for _, v := range app.Versions {
			purls = append(purls, VersionPURL(app, v))
		}
	}
	return purls
}

// VersionPURL returns the Package URL identifying one version of app.
func VersionPURL(app App, v AppVersion) string {
	var qualifiers packageurl.Qualifiers
	if v.DownloadURL != "" {
		qualifiers = packageurl.QualifiersFromMap(map[string]string{
			"download_url": v.DownloadURL,
		})
	}
	p := packageurl.NewPackageURL(packageurl.TypeGeneric, "", app.BundleIdentifier, v.Version, qualifiers, "")
	return p.ToString()
}

// ParsePURL parses a Package URL produced by Inventory.
func ParsePURL(s string) (packageurl.PackageURL, error) {
	return packageurl.FromString(s)
}

package core

// ResolveApp returns the first app whose bundle identifier equals
// bundleID.
func ResolveApp(src Source, bundleID string) (App, bool) {
	for _, app := range src.Apps {
		if app.BundleIdentifier == bundleID {
			return app, true
		}
	}
	return App{}, false
}

// IsFeatured reports whether bundleID is listed in src.FeaturedApps.
func IsFeatured(src Source, bundleID string) bool {
	for _, id := range src.FeaturedApps {
		if id == bundleID {
			return true
		}
	}
	return false
}

// FeaturedApps resolves src.FeaturedApps in order. Identifiers that match
// no app are skipped.
func FeaturedApps(src Source) []App {
	var apps []App
	for _, id := range src.FeaturedApps {
		if app, ok := ResolveApp(src, id); ok {
			apps = append(apps, app)
		}
	}
	return apps
}

// ResolveNewsApp returns the app a news item links to. Unlinked items and
// dangling links resolve to nothing.
func ResolveNewsApp(src Source, item NewsItem) (App, bool) {
	if item.AppID == "" || item.AppID == NoApp {
		return App{}, false
	}
	return ResolveApp(src, item.AppID)
}

// LatestVersion returns the app's current version, which by convention is
// the first entry of Versions.
func LatestVersion(app App) (AppVersion, bool) {
	if len(app.Versions) == 0 {
		return AppVersion{}, false
	}
	return app.Versions[0], true
}

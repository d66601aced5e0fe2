// Package altstore registers deep links for the AltStore client.
package altstore

import "github.com/git-pkgs/altsource/links"

const Name = "altstore"

func init() {
	links.Register(Name, New)
}

// New returns AltStore's link builder.
func New() links.Builder {
	return &links.SchemeLinks{
		Provider:      Name,
		Scheme:        "altstore",
		SourceAction:  "source",
		InstallAction: "install",
	}
}

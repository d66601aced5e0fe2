// Package all imports all bundled link providers.
//
// Import this package for its side effects to register them:
//
//	import (
//		"github.com/git-pkgs/altsource/links"
//		_ "github.com/git-pkgs/altsource/all"
//	)
//
//	providers := links.Supported()
//	// ["altstore", "sidestore"]
package all

import (
	_ "github.com/git-pkgs/altsource/internal/altstore"
	_ "github.com/git-pkgs/altsource/internal/sidestore"
)

// SPDX-License-Identifier: Apache-2.0

package version

// Set at build time with -ldflags "-X github.com/kusari-oss/fixit/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)

// Package pkg provides the libraries behind themecheck.
//
// # Overview
//
// themecheck audits the default configuration files shipped by hexo themes.
// It crawls the theme catalog, follows each theme to its repository, fetches
// the repository's _config.yml and checks whether fields that site owners
// usually customize (menu, nav, widgets, links) are left empty so that a
// site-level setting can replace them.
//
// # Architecture
//
//	catalog page
//	     ↓
//	[extract] catalog entries → [theme] collection
//	     ↓
//	repository pages → [extract] config link → [themeconfig] raw URL
//	     ↓
//	raw config files → [themeconfig] YAML documents
//	     ↓
//	[rules] violation table
//
// [pipeline] drives the stages. All network access goes through [fetch],
// which reads and fills the [cache] response cache.
//
// # Supporting packages
//
//   - [errors]: coded errors and exit status mapping
//   - [httputil]: retry with backoff
//   - [observability]: hooks and Prometheus metrics
//   - [buildinfo]: version stamping
package pkg

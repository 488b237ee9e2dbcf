// Package catalog maintains the repository of installed plugins and the
// events they expose.
//
// The repository is rebuilt by scanning a plugin directory for units shaped
// like <dir>/<name>/<name>.plugin.lua and is persisted to a single JSON blob
// so later processes can skip the scan. A rescan merges with the persisted
// repository: a plugin that already exists keeps its stored activity state,
// but its method declarations are replaced by what the scan finds in code.
//
// Event and plugin names are case-insensitive throughout; the catalog
// normalizes them to lower case at every boundary.
package catalog

// Package plugin materializes plugin units on first use and keeps them
// alive for the rest of the process.
//
// A unit is the pair of files under <pluginDir>/<name>/: the code unit
// <name>.plugin.lua and the optional resource mount descriptor
// <name>.drive.xml. Loading is monotonic: once a unit is instantiated it is
// never unloaded or reloaded, so handler state survives across every event
// dispatched in the same process.
//
// A missing mount descriptor is never an error. A missing code unit is
// recorded at load time but only surfaces when a handler invocation is
// attempted, which keeps a stale repository blob from failing dispatches
// that never touch the vanished plugin.
package plugin

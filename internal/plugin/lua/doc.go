// Package lua provides the sandboxed Lua runtime used to execute plugin
// code units.
//
// Every plugin unit owns one State for the lifetime of the process. The
// state is created with only the safe standard libraries opened (base,
// table, string, math); io, os, debug and package are never available to
// plugin code. All execution paths recover Lua panics and return them as
// errors.
//
// # State
//
//	state, err := lua.NewState()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	if err := state.DoFile("p1.plugin.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Bridge
//
// The Bridge provides bidirectional type conversion so broadcast arguments
// reach handlers as Lua tables and handler results come back as Go values:
//
//	bridge := lua.NewBridge(state.LuaState())
//
//	// Go to Lua
//	luaVal := bridge.ToLuaValue(map[string]interface{}{
//	    "name": "test",
//	    "count": 42,
//	})
//
//	// Lua to Go
//	goVal := bridge.ToGoValue(luaVal)
package lua

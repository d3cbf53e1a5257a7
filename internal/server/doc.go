// Package server is the diagnostics endpoint of a running wlanmgr.
//
// It serves three routes:
//
//	GET /api/state    the station snapshot as JSON
//	GET /api/version  build identity
//	GET /ws           a websocket stream
//
// On /ws the server sends a snapshot right after the upgrade and again
// after every radio event the station manager renders. Clients may send
// commands:
//
//	{"op":"SCAN_START","mode":"try","timeout_ms":0}
//	{"op":"CONNECT","ssid":"Home","password":"secret"}
//
// Each command is answered with {"type":"reply","reply":{"ok":true}} or
// an error string. Mode defaults to force; a CONNECT carrying an SSID
// replaces the network being joined before the operation is queued.
//
// Client wraps the protocol for `wlanmgr status` and `wlanmgr op`.
//
// # Usage Example
//
//	srv, err := server.New(server.Config{Listen: ":8080"}, mgr)
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(context.Background())
package server

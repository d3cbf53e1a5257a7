// Package discovery announces and finds wlanmgr instances over mDNS.
//
// A running manager registers the "_wlanmgr._tcp" service while its
// station is connected, so the announcement follows the link: Announce is
// wired to the station's connected hook and Withdraw to its disconnected
// hook. The TXT record carries the build version and the joined SSID.
//
// Scanner browses for those announcements; `wlanmgr discover` prints what
// it finds and each peer's Addr can be passed to `wlanmgr status --addr`.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Peers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery

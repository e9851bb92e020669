// Package discovery implements mDNS/DNS-SD discovery of OPC UA
// servers.
//
// Servers announce themselves under _opcua-tcp._tcp (the OPC UA Part
// 12 multicast extension). The instance name is the server name; TXT
// records carry the endpoint path ("path") and an optional capability
// list ("caps"). Browse collects the servers visible within a time
// window, Watch streams them as they appear, and Service.URL turns an
// announcement into a dialable opc.tcp endpoint URL.
//
// Announcer is the server side of the same exchange. The bundled
// simulator uses it so a shell's "discover" finds local test servers.
package discovery

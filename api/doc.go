// Package api holds the configuration and wire types shared by the gateway's
// HTTP handlers and server.
//
// Subpackages:
//   - gateway: the open and signature-authenticated activation entries
//   - server: the HTTP front end (route table, probes, CORS, metrics listener)
package api

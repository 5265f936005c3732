// Package api exposes the rotation ledger, chat and admin operations as JSON
// over HTTP, along with the ICS feed, metrics and the static web client.
package api

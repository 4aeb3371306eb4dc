// Package target provides the Target model and the ordered registry of hosts
// a batch is applied to.
package target

import (
	"net"
	"strconv"
)

// Credentials authenticate against a target's management endpoint.
type Credentials struct {
	User     string
	Password string
}

// Target is one remote host exposing the managed resource.
type Target struct {
	Name        string       // Configured name (defaults to host:port)
	Host        string       // Host name or address
	Port        int          // Management endpoint port
	Credentials *Credentials // nil when the endpoint is unauthenticated
}

// Label identifies the target in failure messages.
func (t Target) Label() string {
	return t.Host
}

// Address returns host:port.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// HasCredentials reports whether a user name was configured.
func (t Target) HasCredentials() bool {
	return t.Credentials != nil && t.Credentials.User != ""
}

func (t Target) String() string {
	if t.Name == "" || t.Name == t.Address() {
		return t.Address()
	}
	return t.Name + " (" + t.Address() + ")"
}

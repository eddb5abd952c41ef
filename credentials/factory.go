// Package credentials abstracts how the test sequencer secures both the
// server socket it listens on and the client channels it opens to node
// managers. Transport security is an external collaborator's concern;
// this package only defines the seam and an insecure implementation
// that the core can be tested against.
package credentials

import (
	"context"
	"net"

	"google.golang.org/grpc/credentials"
)

// ServerCredentialsFactory produces the credentials the sequencer's
// listener binds with. It is called once, at Initialize time.
type ServerCredentialsFactory func() credentials.TransportCredentials

// ChannelCredentialsFactory produces the credentials used to dial a node
// manager's control channel. It is called once per registration.
type ChannelCredentialsFactory func() credentials.TransportCredentials

// Insecure returns a ServerCredentialsFactory/ChannelCredentialsFactory
// pair that performs no transport security. Production callers must
// supply their own factories; this pair exists so the core has something
// to run against in tests and local development.
func Insecure() (ServerCredentialsFactory, ChannelCredentialsFactory) {
	return func() credentials.TransportCredentials { return insecureCredentials{} },
		func() credentials.TransportCredentials { return insecureCredentials{} }
}

// insecureCredentials is a hand-written no-op credentials.TransportCredentials.
// google.golang.org/grpc/credentials/insecure does not exist at this
// module's pinned grpc-go version; it shipped later, alongside the
// grpc.WithInsecure() deprecation. It performs no handshake and carries no
// security guarantee.
type insecureCredentials struct{}

func (insecureCredentials) ClientHandshake(_ context.Context, _ string, conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	return conn, nil, nil
}

func (insecureCredentials) ServerHandshake(conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	return conn, nil, nil
}

func (insecureCredentials) Info() credentials.ProtocolInfo {
	return credentials.ProtocolInfo{SecurityProtocol: "insecure"}
}

func (insecureCredentials) Clone() credentials.TransportCredentials {
	return insecureCredentials{}
}

func (insecureCredentials) OverrideServerName(string) error {
	return nil
}

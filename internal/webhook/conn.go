package webhook

import (
	"context"
	"net"
)

// PeerCred identifies the process on the other end of a unix socket.
type PeerCred struct {
	PID int32
	UID uint32
	GID uint32
}

// ConnInfo describes the connection a request arrived on.
type ConnInfo struct {
	Network  string
	PeerAddr string
	// PeerCred is set for unix socket connections on platforms that
	// support SO_PEERCRED.
	PeerCred *PeerCred
}

type connInfoKey struct{}

// ConnInfoFromContext returns the connection descriptor stored by the server.
func ConnInfoFromContext(ctx context.Context) (ConnInfo, bool) {
	info, ok := ctx.Value(connInfoKey{}).(ConnInfo)
	return info, ok
}

// connContext is used as http.Server.ConnContext.
func connContext(ctx context.Context, c net.Conn) context.Context {
	info := ConnInfo{Network: c.LocalAddr().Network()}
	if addr := c.RemoteAddr(); addr != nil {
		info.PeerAddr = addr.String()
	}
	if uc, ok := c.(*unixConn); ok {
		info.PeerCred = uc.cred
	}
	return context.WithValue(ctx, connInfoKey{}, info)
}

// unixListener yields connections that carry their peer credentials.
type unixListener struct {
	*net.UnixListener
}

func (l unixListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptUnix()
	if err != nil {
		return nil, err
	}
	cred, _ := peerCred(conn)
	return &unixConn{UnixConn: conn, cred: cred}, nil
}

type unixConn struct {
	*net.UnixConn
	cred *PeerCred
}

package quteproc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
)

const ipcProtocolVersion = 1

// ipcMessage is the single JSON line a running instance accepts on its
// local socket.
type ipcMessage struct {
	Args            []string `json:"args"`
	TargetArg       string   `json:"target_arg"`
	ProtocolVersion int      `json:"protocol_version"`
	Version         string   `json:"version,omitempty"`
	Cwd             string   `json:"cwd,omitempty"`
}

func newIPCMessage(version string, args ...string) ipcMessage {
	cwd, _ := os.Getwd()
	return ipcMessage{
		Args:            args,
		ProtocolVersion: ipcProtocolVersion,
		Version:         version,
		Cwd:             cwd,
	}
}

// sendIPC writes msg to the unix socket and closes the connection.
func sendIPC(ctx context.Context, socket string, msg ipcMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode IPC message: %w", err)
	}
	data = append(data, '\n')

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socket)
	if err != nil {
		return fmt.Errorf("failed to connect to IPC socket %s: %w", socket, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to write IPC message: %w", err)
	}
	return nil
}

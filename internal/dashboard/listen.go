package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
)

// listenAutoPort tries the configured port; if busy, scans up to 10 higher ports.
func listenAutoPort(bind string, port int, logger *slog.Logger) (net.Listener, int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(bind, fmt.Sprint(port)))
	if err == nil {
		// Port 0 asks the OS to pick one.
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}
	if !errors.Is(err, syscall.EADDRINUSE) {
		return nil, 0, err
	}

	logger.Warn("port in use, searching for available port", "port", port)
	for offset := 1; offset <= 10; offset++ {
		try := port + offset
		ln, err = net.Listen("tcp", net.JoinHostPort(bind, fmt.Sprint(try)))
		if err == nil {
			logger.Info("using alternative port", "original", port, "actual", try)
			return ln, try, nil
		}
	}
	return nil, 0, fmt.Errorf("port %d and next 10 ports are all in use", port)
}

//go:build !windows

package tui

import (
	"time"

	"golang.org/x/sys/unix"
)

const inputPollInterval = 50 * time.Millisecond

// read blocks until input is available on p.fd, polling so that a stopped TUI releases the goroutine without closing the descriptor.
func (p *inputProcessor) read(buf []byte) (int, error) {
	if p.fd < 0 {
		return p.reader.Read(buf)
	}

	timeout := int(inputPollInterval / time.Millisecond)
	for {
		if err := p.t.ctx.Err(); err != nil {
			return 0, err
		}

		ready, err := pollReadable(p.fd, timeout)
		if err != nil {
			return 0, err
		}
		if !ready {
			continue
		}

		for {
			n, err := unix.Read(p.fd, buf)
			if n >= 0 {
				return n, err
			}
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				break
			}
			return n, err
		}
	}
}

func pollReadable(fd int, timeoutMillis int) (bool, error) {
	fds := []unix.PollFd{{
		Fd:     int32(fd),
		Events: unix.POLLIN | unix.POLLHUP | unix.POLLERR,
	}}
	n, err := unix.Poll(fds, timeoutMillis)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	revents := fds[0].Revents
	if revents&unix.POLLNVAL != 0 {
		return false, unix.EBADF
	}
	return revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0, nil
}

//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// epollTimeoutMS bounds each epoll_wait so cancellation is noticed.
const epollTimeoutMS = 250

// readInputEvents multiplexes all devices on one epoll instance and sends
// decoded events to out. It reports the first fatal error on readErr.
func readInputEvents(ctx context.Context, files []*os.File, out chan<- inputEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- errors.New("no input devices provided")
		return
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	byFd := make(map[int32]*os.File, len(files))
	for _, f := range files {
		fd := int(f.Fd())
		byFd[int32(fd)] = f
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			readErr <- fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
			return
		}
	}

	ready := make([]unix.EpollEvent, 32)
	buf := make([]byte, inputEventSize)

	for {
		if ctx.Err() != nil {
			return
		}
		n, err := unix.EpollWait(epfd, ready, epollTimeoutMS)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		for i := 0; i < n; i++ {
			f := byFd[ready[i].Fd]
			if ready[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				readErr <- fmt.Errorf("device error/hangup: %s", f.Name())
				return
			}
			if _, err := unix.Read(int(ready[i].Fd), buf); err != nil {
				readErr <- fmt.Errorf("read from %s: %w", f.Name(), err)
				return
			}
			ev, err := decodeInputEvent(buf)
			if err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

//go:build !linux

package main

import (
	"context"
	"errors"
	"os"
)

func readInputEvents(_ context.Context, _ []*os.File, _ chan<- inputEvent, readErr chan<- error) {
	readErr <- errors.New("evdev input is only supported on linux")
}

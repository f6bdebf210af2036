// flipbook-watch connects to flipbookd's websocket and prints every frame as
// a page strip. With -auto-ack it also acknowledges steps and landings, which
// lets a daemon run end to end without a renderer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"flipbook/internal/book"
)

func main() {
	var (
		wsURL     = flag.String("ws", "ws://127.0.0.1:3310/ws", "flipbookd websocket URL")
		autoAck   = flag.Bool("auto-ack", false, "Acknowledge animation steps and page landings on time")
		landingMS = flag.Int("landing-ms", 450, "Landing animation length used by -auto-ack")
		colorMode = flag.String("color", "auto", "Color output: auto|always|never")
		raw       = flag.Bool("raw", false, "Print raw JSON frames")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	var color bool
	switch *colorMode {
	case "auto":
		color = shouldColorize(os.Stdout)
	case "always":
		color = true
	case "never":
	default:
		log.Fatalf("invalid -color %q: must be auto, always or never", *colorMode)
	}
	pal := newPalette(color)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("connected (press Ctrl+C to exit)")

	// gorilla/websocket allows one concurrent writer.
	var writeMu sync.Mutex
	send := func(ev book.Event) error {
		msg, err := book.MarshalEvent(ev)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, msg)
	}

	var ack *acker
	if *autoAck {
		ack = newAcker(time.Duration(*landingMS)*time.Millisecond, send)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			if *raw {
				fmt.Println(string(msg))
			}
			if err := handleFrame(msg, pal, ack, *raw); err != nil {
				log.Printf("%v", err)
			}
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			log.Printf("error closing connection: %v", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
		log.Printf("connection closed")
	}
}

func handleFrame(msg []byte, pal palette, ack *acker, quiet bool) error {
	f, d, err := decodeFrame(msg)
	if err != nil {
		return err
	}

	var line string
	switch {
	case d.State != nil:
		line = formatState(*d.State, pal)
		if ack != nil {
			ack.State(*d.State)
		}
	case d.Step != nil:
		line = formatStep(*d.Step, pal)
		if ack != nil {
			ack.Step(*d.Step)
		}
	case d.Forced != nil:
		line = formatForced(*d.Forced, pal)
	default:
		line = "unknown frame " + f.Type
	}
	if !quiet {
		fmt.Printf("%s %s\n", f.Ts.Local().Format("15:04:05.000"), line)
	}
	return nil
}

// anchorwatch follows a running anchorscan: it prints the event stream and
// can send taps, toggle the scan sweep or clear anchors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-depthanchor/internal/httpc"
	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/hub"
	"github.com/teslashibe/go-depthanchor/pkg/web"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Dashboard address")
	tap := flag.String("tap", "", "Send a tap at x,y and exit")
	scan := flag.String("scan", "", "Turn the scan sweep on or off and exit")
	clearAll := flag.Bool("clear", false, "Detach every anchor and exit")
	clearPoints := flag.Bool("clear-points", false, "Empty the point log and exit")
	status := flag.Bool("status", false, "Print the engine status and exit")
	flag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	base := "http://" + *addr + "/api"
	var err error
	switch {
	case *tap != "":
		err = sendTap(ctx, base, *tap)
	case *scan != "":
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/scan", web.ScanRequest{Enabled: *scan == "on"}, nil)
	case *clearAll:
		err = httpc.DoJSON(ctx, http.MethodDelete, base+"/anchors", nil, nil)
	case *clearPoints:
		err = httpc.DoJSON(ctx, http.MethodDelete, base+"/points", nil, nil)
	case *status:
		var st web.Status
		if err = httpc.GetJSON(ctx, base+"/status", &st); err == nil {
			printJSON(st)
		}
	default:
		err = watch(ctx, *addr)
	}
	if err != nil {
		log.Error("anchorwatch", "error", err)
		os.Exit(1)
	}
}

func sendTap(ctx context.Context, base, arg string) error {
	xs, ys, ok := strings.Cut(arg, ",")
	if !ok {
		return fmt.Errorf("tap %q: want x,y", arg)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return fmt.Errorf("tap x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return fmt.Errorf("tap y: %w", err)
	}
	return httpc.DoJSON(ctx, http.MethodPost, base+"/tap", web.TapRequest{X: x, Y: y}, nil)
}

// watch prints events until ctx is done or the server goes away.
func watch(ctx context.Context, addr string) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws/events"}
	dialer := websocket.Dialer{HandshakeTimeout: httpc.DefaultConnectTimeout}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", u.String(), err)
	}
	defer conn.Close()
	log.Info("watching events", "url", u.String())

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var env struct {
			hub.Envelope
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn("bad event", "error", err)
			continue
		}
		fmt.Printf("%s %-8s %s\n", env.Time.Format("15:04:05.000"), env.Type, env.Data)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

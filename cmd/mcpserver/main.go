package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/cache"
	"github.com/mehmetkoksal-w/mcpserver/internal/config"
	"github.com/mehmetkoksal-w/mcpserver/internal/dispatch"
	"github.com/mehmetkoksal-w/mcpserver/internal/discover"
	"github.com/mehmetkoksal-w/mcpserver/internal/examplehandlers"
	"github.com/mehmetkoksal-w/mcpserver/internal/handler"
	"github.com/mehmetkoksal-w/mcpserver/internal/logging"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/registry"
	"github.com/mehmetkoksal-w/mcpserver/internal/session"
	"github.com/mehmetkoksal-w/mcpserver/internal/transport"
	"github.com/mehmetkoksal-w/mcpserver/internal/transport/httpsse"
	"github.com/mehmetkoksal-w/mcpserver/internal/transport/stdio"
)

func main() {
	configPath := flag.String("config", "", "path to a JSONC config file (optional; defaults are used if absent)")
	transportName := flag.String("transport", "stdio", "transport to serve on: 'stdio' or 'http'")
	logLevel := flag.String("log-level", "info", "zerolog level name")
	prettyLog := flag.Bool("pretty-log", false, "write console-formatted logs instead of JSON lines")
	flag.Parse()

	log := logging.New(*logLevel, *prettyLog)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: load config: %v\n", err)
		os.Exit(1)
	}

	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: open cache: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	reg := registry.New(log)
	if err := reg.LoadFromCache(context.Background(), c); err != nil {
		log.Warn().Err(err).Msg("cache: warm start failed, starting with an empty catalog")
	}

	notes := examplehandlers.NewNotes()
	handler.Register("Notes", notes)
	reg.RegisterTool(mcptype.Tool{
		Name:        "create_note",
		Description: "Stores a scratchpad note and returns its ID",
		InputSchema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"text": map[string]any{"type": "string"}},
			"required":             []any{"text"},
			"additionalProperties": false,
		},
		Handler: mcptype.HandlerRef{ClassID: "Notes", Method: "Create", Invoke: handler.BuildInvoke("Notes", "Create")},
	}, true)
	if err := reg.RegisterTemplate(mcptype.ResourceTemplate{
		URITemplate: "notes://{id}",
		Name:        "note",
		Description: "Reads back a stored scratchpad note",
		MimeType:    "text/plain",
		Handler:     mcptype.HandlerRef{ClassID: "Notes", Method: "Read", Invoke: notes.Read},
	}, true); err != nil {
		log.Error().Err(err).Msg("failed to register notes:// template")
	}

	d := discover.New(reg, log)
	if err := d.Run(cfg.Discovery); err != nil {
		log.Warn().Err(err).Msg("discovery scan encountered an error")
	}
	if err := reg.SaveToCache(context.Background(), c); err != nil {
		log.Warn().Err(err).Msg("cache: failed to persist discovered catalog")
	}

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	gcPeriod := time.Duration(cfg.SessionGCIntervalSeconds) * time.Second
	sessions := session.NewStore(ttl, gcPeriod, log)
	sessions.StartGC()
	defer sessions.Stop()

	disp := dispatch.New(reg, sessions, cfg, log)

	switch *transportName {
	case "stdio":
		runStdio(disp, sessions, log)
	case "http":
		runHTTP(disp, sessions, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "mcpserver: unknown transport %q\n", *transportName)
		os.Exit(1)
	}
}

func runStdio(disp *dispatch.Dispatcher, sessions *session.Store, log zerolog.Logger) {
	tr := stdio.New(os.Stdin, os.Stdout, log)
	fmt.Fprintln(os.Stderr, "mcpserver: reading JSON-RPC from stdin...")
	serve(context.Background(), tr, disp, sessions, log)
}

func runHTTP(disp *dispatch.Dispatcher, sessions *session.Store, cfg *config.Config, log zerolog.Logger) {
	tr := httpsse.New(cfg.HTTPPathPrefix, log)
	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)

	go serve(context.Background(), tr, disp, sessions, log)

	fmt.Fprintf(os.Stderr, "mcpserver: listening on http://%s%s/sse ...\n", addr, cfg.HTTPPathPrefix)
	if err := http.ListenAndServe(addr, tr.Handler()); err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: http server exited: %v\n", err)
		os.Exit(1)
	}
}

// serve drains inbound messages from tr, auto-opening a session under the
// transport's own session ID on first sight, and drains every session's
// outbound notification queue on a short tick so that server-initiated
// messages (list_changed, resources/updated) reach clients promptly over
// both stdio and the SSE stream.
func serve(ctx context.Context, tr transport.Transport, disp *dispatch.Dispatcher, sessions *session.Store, log zerolog.Logger) {
	drain := time.NewTicker(100 * time.Millisecond)
	defer drain.Stop()

	inbound := make(chan transport.Inbound)
	errs := make(chan error, 1)
	go func() {
		for {
			in, err := tr.Receive(ctx)
			if err != nil {
				errs <- err
				return
			}
			inbound <- in
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("transport receive failed")
			}
			return
		case in := <-inbound:
			sessions.OpenWithID(in.SessionID)
			if out := disp.HandleMessage(ctx, in.SessionID, in.Raw); out != nil {
				if err := tr.Send(ctx, in.SessionID, json.RawMessage(out)); err != nil {
					log.Warn().Err(err).Str("session", in.SessionID).Msg("failed to send response")
				}
			}
		case <-drain.C:
			for _, id := range sessions.All() {
				sess, ok := sessions.Get(id)
				if !ok {
					continue
				}
				for _, msg := range sess.Dequeue() {
					if err := tr.Send(ctx, id, msg); err != nil {
						log.Warn().Err(err).Str("session", id).Msg("failed to send queued notification")
					}
				}
			}
		}
	}
}

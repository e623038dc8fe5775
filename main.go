package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // registers pprof handlers
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mossgate/voxelgarden/server"
)

var (
	addr      = flag.String("addr", ":8080", "http service address")
	pprofAddr = flag.String("pprof", ":6060", "pprof http service address")
	logLevel  = flag.String("log", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	var leveler slog.LevelVar
	switch *logLevel {
	case "debug":
		leveler.Set(slog.LevelDebug)
	case "warn":
		leveler.Set(slog.LevelWarn)
	case "error":
		leveler.Set(slog.LevelError)
	default:
		leveler.Set(slog.LevelInfo)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &leveler}))
	slog.SetDefault(logger)

	hub := server.NewHub(logger)
	go hub.Run()

	go func() {
		logger.Info("starting pprof server", "addr", *pprofAddr)
		if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
			log.Fatalf("pprof ListenAndServe: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("starting world server", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("ListenAndServe: %v", err)
	}
}

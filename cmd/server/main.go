package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"x-runner/internal/debug"
	"x-runner/internal/game"
	"x-runner/internal/transport/ws"
	"x-runner/internal/world"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	terrainPath := envOr("TERRAIN_PATH", "static/terrain.json")
	addr := envOr("LISTEN_ADDR", ":8080")

	// Датасет загружается один раз и дальше только читается:
	// каждая сессия собирает из него собственный физический мир
	dataset, err := world.Load(terrainPath)
	if err != nil {
		log.Fatalf("[Server] Датасет террейна не загружен: %v", err)
	}

	opts := game.SessionOptions{
		NextWorldURL: envOr("NEXT_WORLD_URL", "https://pollinations.github.io/hello-world"),
		SelfURL:      envOr("SELF_URL", ""),
		TargetTPS:    60,
	}
	if os.Getenv("DEBUG") == "1" {
		opts.Debug = debug.NewLog(log.Default())
	}

	server := ws.NewServer(dataset, opts, log.Default())

	fs := http.FileServer(http.Dir("./static"))
	http.Handle("/", fs)
	http.HandleFunc("/ws", server.HandleWS)

	fmt.Printf("[Server] Listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

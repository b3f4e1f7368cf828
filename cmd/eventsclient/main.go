// Command eventsclient tails the ledger event stream for local debugging.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/Soltrivia-App/soltrivia-contract/internal/events"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

func main() {
	url := pflag.String("url", "ws://localhost:8080/api/v1/events/ws", "event stream endpoint")
	initData := pflag.String("init-data", os.Getenv("APP_INIT_DATA"), "Telegram init data sent as the Authorization header")
	filter := pflag.StringSlice("type", nil, "only print events of these types")
	pflag.Parse()

	header := http.Header{}
	header.Add("Authorization", "Telegram "+*initData)

	conn, _, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	wanted := make(map[events.Type]bool, len(*filter))
	for _, t := range *filter {
		wanted[events.Type(t)] = true
	}

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			log.Println("read error:", err)
			return
		}

		var e events.Event
		if err := json.Unmarshal(p, &e); err != nil {
			log.Println("decode error:", err)
			continue
		}
		if len(wanted) > 0 && !wanted[e.Type] {
			continue
		}

		pretty, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			log.Println("json marshal error:", err)
			continue
		}
		log.Printf("Received:\n%s\n", pretty)
	}
}

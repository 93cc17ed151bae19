// Command fenrirctl is a CLI client for the order-entry HTTP surface: it
// can place orders, cancel a resting order by id, and print a book's
// status counters.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
)

func main() {
	serverAddr := flag.String("server", "http://127.0.0.1:9001", "address of the order-entry HTTP surface")
	action := flag.String("action", "place", "action to perform: ['place', 'cancel', 'status']")

	symbol := flag.String("symbol", "BTC-USD", "symbol to trade")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "order type: 'limit', 'market', 'ioc' or 'fok'")
	price := flag.String("price", "", "limit price (required unless -type=market)")
	qtyStr := flag.String("qty", "10", "quantity or comma-separated list (e.g. 10,20,50)")

	orderID := flag.Uint64("id", 0, "order id to cancel")

	flag.Parse()

	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range parseQuantities(*qtyStr) {
			resp, err := placeOrder(*serverAddr, *symbol, *sideStr, *typeStr, *price, qty)
			if err != nil {
				log.Printf("failed to place order (qty %s): %v", qty, err)
				continue
			}
			fmt.Printf("-> %s %s %s @ %s: %d trade(s) executed\n",
				strings.ToUpper(*sideStr), qty, *symbol, *price, resp.TradesExecuted)
			for _, t := range resp.Trades {
				fmt.Printf("   matched %s @ %s (trade #%d)\n", t.Quantity, t.Price, t.TradeID)
			}
		}

	case "cancel":
		if *orderID == 0 {
			log.Fatal("-id is required for cancel")
		}
		if err := cancelOrder(*serverAddr, *symbol, *orderID); err != nil {
			log.Fatalf("failed to cancel order %d: %v", *orderID, err)
		}
		fmt.Printf("-> cancelled order %d on %s\n", *orderID, *symbol)

	case "status":
		st, err := fetchStatus(*serverAddr, *symbol)
		if err != nil {
			log.Fatalf("failed to fetch status: %v", err)
		}
		fmt.Printf("%s: accepted=%d rejected=%d trades=%d bid_levels=%d ask_levels=%d dropped=%d\n",
			*symbol, st.OrdersAccepted, st.OrdersRejected, st.TradesEmitted, st.BidLevels, st.AskLevels, st.ObserverDropped)

	default:
		log.Fatalf("unknown action: %s", *action)
	}
}

func parseQuantities(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			log.Printf("warning: invalid quantity %q, skipping", p)
			continue
		}
		result = append(result, p)
	}
	return result
}

type tradeView struct {
	TradeID  uint64 `json:"trade_id"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

type submitResponse struct {
	Status         string      `json:"status"`
	TradesExecuted int         `json:"trades_executed"`
	Trades         []tradeView `json:"trades"`
	Message        string      `json:"message"`
}

func placeOrder(serverAddr, symbol, side, orderType, price, qty string) (*submitResponse, error) {
	body, err := json.Marshal(map[string]string{
		"symbol":     symbol,
		"side":       side,
		"order_type": orderType,
		"price":      price,
		"quantity":   qty,
	})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(serverAddr+"/api/v1/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("rejected: %s", out.Message)
	}
	return &out, nil
}

func cancelOrder(serverAddr, symbol string, orderID uint64) error {
	url := fmt.Sprintf("%s/api/v1/orders/%s/%d", serverAddr, symbol, orderID)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.Status != "success" {
		return fmt.Errorf("rejected: %s", out.Message)
	}
	return nil
}

type statusResponse struct {
	OrdersAccepted  uint64 `json:"orders_accepted"`
	OrdersRejected  uint64 `json:"orders_rejected"`
	TradesEmitted   uint64 `json:"trades_emitted"`
	ObserverDropped uint64 `json:"observer_dropped"`
	BidLevels       int    `json:"bid_levels"`
	AskLevels       int    `json:"ask_levels"`
}

func fetchStatus(serverAddr, symbol string) (*statusResponse, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/status?symbol=%s", serverAddr, symbol))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

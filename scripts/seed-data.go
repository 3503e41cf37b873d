//go:build ignore
// +build ignore

// seed-data populates a running finbuddy backend with demo transactions and a
// subscription so the dashboard and the payment checker have something to
// work with.
//
// Usage:
//
//	go run ./scripts/seed-data.go
//	API_URL=http://localhost:8111 USER_ID=demo-user go run ./scripts/seed-data.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8111"
	}

	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "local-dev-user"
	}

	log.Printf("Seeding %s as user %s", apiURL, userID)

	now := time.Now()
	type txn struct {
		Date     time.Time `json:"date"`
		Amount   float64   `json:"amount"`
		Type     string    `json:"type"`
		Merchant string    `json:"merchant"`
		Category string    `json:"category"`
	}

	txns := []txn{
		// three months of Netflix, monthly cadence
		{now.AddDate(0, 0, -62), 649, "expense", "UPI/NETFLIX ENTERTAINMENT/402935773301", "entertainment"},
		{now.AddDate(0, 0, -32), 649, "expense", "UPI/NETFLIX ENTERTAINMENT/402935773302", "entertainment"},
		{now.AddDate(0, 0, -2), 649, "expense", "UPI/NETFLIX ENTERTAINMENT/402935773303", "entertainment"},
		// everyday spending
		{now.AddDate(0, 0, -20), 420, "expense", "SWIGGY BANGALORE", "food"},
		{now.AddDate(0, 0, -12), 1850, "expense", "BIG BAZAAR", "groceries"},
		{now.AddDate(0, 0, -5), 310, "expense", "OLA CABS", "transport"},
		// salary
		{now.AddDate(0, 0, -15), 85000, "income", "ACME CORP SALARY", "salary"},
	}

	for _, item := range txns {
		if err := post(apiURL+"/api/transactions", userID, item); err != nil {
			log.Fatalf("Failed to seed transaction %q: %v", item.Merchant, err)
		}
	}
	log.Printf("Seeded %d transactions", len(txns))

	sub := map[string]any{
		"name":            "Netflix",
		"merchantPattern": "Netflix Entertainment",
		"amount":          649,
		"frequency":       "monthly",
		"nextExpected":    now.AddDate(0, 0, -2).Format(time.RFC3339),
	}
	if err := post(apiURL+"/api/subscriptions", userID, sub); err != nil {
		log.Fatalf("Failed to seed subscription: %v", err)
	}
	log.Println("Seeded Netflix subscription")

	fmt.Println()
	fmt.Println("Done. Try:")
	fmt.Printf("  curl -H 'X-User-ID: %s' '%s/api/subscriptions/lookup?name=netflix'\n", userID, apiURL)
	fmt.Printf("  curl -X POST -H 'X-User-ID: %s' '%s/api/subscriptions/check-payments'\n", userID, apiURL)
}

func post(url, userID string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httpmiddleware "github.com/wolfman30/parto-platform/internal/http/middleware"
	"github.com/wolfman30/parto-platform/internal/tenancy"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	path, err := adminPath(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		usage()
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Println("Error: AUTH_JWT_SECRET environment variable not set")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	tokenString, err := adminToken(secret, time.Now())
	if err != nil {
		fmt.Printf("Error signing token: %v\n", err)
		os.Exit(1)
	}

	url := apiURL + path
	fmt.Printf("POST %s\n", url)

	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Error: HTTP %d\n", resp.StatusCode)
		fmt.Printf("Response: %s\n", string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Response: %s\n", string(body))
	} else {
		prettyJSON, _ := json.MarshalIndent(result, "", "  ")
		fmt.Printf("Success!\n%s\n", string(prettyJSON))
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts/leadops expire | fulfill <lead_id> | drop <lead_id>")
	os.Exit(1)
}

func adminPath(args []string) (string, error) {
	switch args[0] {
	case "expire":
		return "/admin/leads/expire", nil
	case "fulfill", "drop":
		if len(args) < 2 || args[1] == "" {
			return "", fmt.Errorf("%s requires a lead id", args[0])
		}
		return fmt.Sprintf("/admin/leads/%s/%s", args[1], args[0]), nil
	}
	return "", fmt.Errorf("unknown command %q", args[0])
}

func adminToken(secret string, now time.Time) (string, error) {
	claims := httpmiddleware.Claims{
		Role: string(tenancy.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "leadops",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Command mint-token prints a signed access token for local testing of
// the admin and booking endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/slot-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()
	user := flag.Uint64("user", 1, "subject (user id)")
	role := flag.String("role", "ADMIN", "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HS256 secret (defaults to JWT_SECRET)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing secret: set JWT_SECRET or pass -secret")
		os.Exit(2)
	}
	tok, err := utils.NewAccessToken(*secret, *user, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}

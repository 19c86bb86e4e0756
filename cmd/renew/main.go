package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/subkit/subkit/internal/api/dto"
)

// renew drives the daily renewal batch over the cron endpoint. It is meant
// to be run from a scheduler, or by hand with -yes omitted so the operator
// confirms the date first.
func main() {
	var (
		server  = flag.String("server", "http://localhost:8080", "base URL of the subscription server")
		date    = flag.String("date", "", "date to process renewals for (YYYY-MM-DD, default today)")
		yes     = flag.Bool("yes", false, "skip the confirmation prompt")
		onlyDue = flag.Bool("only-due", true, "only process instances due to renew")
		timeout = flag.Duration("timeout", 10*time.Minute, "request timeout")
	)
	flag.Parse()

	runDate := time.Now().UTC()
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -date %q: expected YYYY-MM-DD\n", *date)
			os.Exit(2)
		}
		runDate = parsed
	}

	if !*yes && !confirm(runDate) {
		fmt.Println("Aborted.")
		os.Exit(0)
	}

	req := dto.ProcessRenewalsRequest{
		Date:           &runDate,
		OnlyDueToRenew: *onlyDue,
	}
	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode request: %v\n", err)
		os.Exit(1)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = *timeout
	client.Logger = nil

	url := strings.TrimRight(*server, "/") + "/cron/renewals/process"
	httpResp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		fmt.Fprintf(os.Stderr, "server returned %s\n", httpResp.Status)
		os.Exit(1)
	}

	var resp dto.ProcessRenewalsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Renewals for %s\n", resp.Date)
	fmt.Printf("  Processed: %d\n", resp.Processed)
	fmt.Printf("  Renewed:   %d\n", resp.Renewed)
	fmt.Printf("  Failed:    %d\n", resp.Failed)
	fmt.Printf("  Uncaught:  %d\n", resp.Uncaught)

	for _, result := range resp.Results {
		if result.Error != "" {
			fmt.Printf("  - %s: %s (%s)\n", result.InstanceID, result.Outcome, result.Error)
		}
	}

	if resp.Uncaught > 0 {
		os.Exit(1)
	}
}

func confirm(date time.Time) bool {
	fmt.Printf("Process renewals for %s? [y/N] ", date.Format("2006-01-02"))
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

package auth

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	hibpRangeURL  = "https://api.pwnedpasswords.com/range/"
	hibpUserAgent = "pwvault/0.2"
)

// BreachResult captures whether a password hash suffix was found in the HIBP dataset.
type BreachResult struct {
	Found bool
	Count int
}

// BreachChecker queries the Have I Been Pwned range API. It is opt-in: the
// engine itself never touches the network.
type BreachChecker struct {
	Client  *http.Client
	BaseURL string
}

// NewBreachChecker returns a checker against the public HIBP endpoint.
func NewBreachChecker() *BreachChecker {
	return &BreachChecker{
		Client:  &http.Client{Timeout: 4 * time.Second},
		BaseURL: hibpRangeURL,
	}
}

// Check queries the HIBP range API using k-anonymity.
// It never sends the full password; only a 5-hex prefix of SHA1(pw).
// Network and HTTP failures come back wrapped; the caller decides whether to
// fail open or closed.
func (c *BreachChecker) Check(ctx context.Context, pw string) (BreachResult, error) {
	var result BreachResult

	sum := sha1.Sum([]byte(pw))
	hashHex := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix := hashHex[:5]
	suffix := hashHex[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+prefix, nil)
	if err != nil {
		return result, fmt.Errorf("hibp request: %w", err)
	}
	req.Header.Set("User-Agent", hibpUserAgent)
	req.Header.Set("Add-Padding", "true")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return result, fmt.Errorf("hibp query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("hibp query: unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineSuffix, countStr, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(lineSuffix, suffix) {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return result, fmt.Errorf("hibp parse count: %w", err)
		}
		// Padding rows carry a zero count.
		if count == 0 {
			continue
		}

		result.Found = true
		result.Count = count
		return result, nil
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("hibp read response: %w", err)
	}

	return result, nil
}

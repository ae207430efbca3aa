package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"CardWatch/internal/model"
)

// UserAgent is the client identification the balance API expects.
const UserAgent = "Twoja Karta 1.1.0 (iPhone; iPhone OS 7.0.3; pl_PL)"

// EdenredFetcher implements BalanceFetcher using the Edenred mobile app API.
type EdenredFetcher struct {
	Endpoint string
	Salt     string
	Client   *http.Client
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewEdenredFetcher creates a new fetcher with optional proxy support.
func NewEdenredFetcher(endpoint, salt, proxyURL string, logger *zap.Logger) *EdenredFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &EdenredFetcher{
		Endpoint: endpoint,
		Salt:     salt,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Logger: logger,
		Now:    time.Now,
	}
}

func (f *EdenredFetcher) Name() string { return "edenred" }

// Signature returns the hex MD5 of salt followed by the decimal timestamp.
func Signature(salt string, timestamp int64) string {
	sum := md5.Sum([]byte(salt + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(sum[:])
}

// FetchBalance queries the balance of cardID signed with the current Unix time.
func (f *EdenredFetcher) FetchBalance(ctx context.Context, cardID int64) (float64, error) {
	return f.FetchBalanceAt(ctx, cardID, f.Now().Unix())
}

// FetchBalanceAt queries the balance of cardID signed with the given Unix timestamp.
func (f *EdenredFetcher) FetchBalanceAt(ctx context.Context, cardID, timestamp int64) (float64, error) {
	form := url.Values{
		"action":    {"balance"},
		"cards":     {strconv.FormatInt(cardID, 10)},
		"timestamp": {strconv.FormatInt(timestamp, 10)},
		"hash":      {Signature(f.Salt, timestamp)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, errors.Wrap(err, "build balance request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, &model.TransportError{Op: "fetch balance", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &model.TransportError{Op: "read balance response", StatusCode: resp.StatusCode, Err: err}
	}

	var cards map[string]json.RawMessage
	if err := json.Unmarshal(body, &cards); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return 0, &model.TransportError{Op: "fetch balance", StatusCode: resp.StatusCode, Err: err}
		}
		return 0, &model.MalformedResponseError{Field: "body", Body: string(body)}
	}

	key := strconv.FormatInt(cardID, 10)
	raw, ok := cards[key]
	if !ok {
		f.Logger.Warn("card missing from balance response",
			zap.Int64("card", cardID), zap.ByteString("body", body))
		return 0, &model.UnknownCardError{CardID: cardID, Body: string(body)}
	}
	return parseCardDetails(cardID, raw)
}

func parseCardDetails(cardID int64, raw json.RawMessage) (float64, error) {
	var details map[string]json.RawMessage
	if err := json.Unmarshal(raw, &details); err != nil {
		return 0, &model.MalformedResponseError{Field: strconv.FormatInt(cardID, 10), Body: string(raw)}
	}

	if msg, ok := details["error"]; ok {
		return 0, &model.RemoteBalanceError{CardID: cardID, Message: rawText(msg)}
	}

	amount, ok := details["amount"]
	if !ok {
		return 0, &model.MalformedResponseError{Field: "amount", Body: string(raw)}
	}
	value, err := parseAmount(amount)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &model.MalformedResponseError{Field: "amount", Body: string(raw)}
	}
	return value, nil
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (float64, error) {
	if strings.TrimSpace(string(raw)) == "null" {
		return 0, errors.New("amount is null")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// rawText renders a JSON value as plain text, unquoting strings.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

const (
	// DefaultAPIURL is the Etherscan multichain API endpoint
	DefaultAPIURL = "https://api.etherscan.io/v2/api"

	etherscanTimeout = 10 * time.Second
)

var (
	errMissingAPIKey = errors.New("no Etherscan API key configured (set ETHERSCAN_API_KEY)")
	errRateLimited   = errors.New("etherscan rate limit reached")
)

// apiResponse is the Etherscan response envelope. Result is an array on
// success and a message string on failure.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// sourceCode is one getsourcecode result entry
type sourceCode struct {
	SourceCode           string `json:"SourceCode"`
	ABI                  string `json:"ABI"`
	ContractName         string `json:"ContractName"`
	CompilerVersion      string `json:"CompilerVersion"`
	ConstructorArguments string `json:"ConstructorArguments"`
	LicenseType          string `json:"LicenseType"`
	Proxy                string `json:"Proxy"`
	Implementation       string `json:"Implementation"`
}

// EtherscanClient fetches verified source metadata from an Etherscan-compatible API
type EtherscanClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
	log        *slog.Logger
}

// NewEtherscanClient creates a new Etherscan client from the runtime configuration
func NewEtherscanClient(cfg *config.RuntimeConfig, log *slog.Logger) *EtherscanClient {
	apiURL := cfg.EtherscanAPIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &EtherscanClient{
		apiURL:     apiURL,
		apiKey:     cfg.EtherscanAPIKey,
		httpClient: &http.Client{Timeout: etherscanTimeout},
		attempts:   3,
		delay:      time.Second,
		log:        log.With("component", "EtherscanClient"),
	}
}

// Fetch returns the verified source of address on chainID.
// Returns domain.ErrNotVerified when the explorer has no source for it.
func (c *EtherscanClient) Fetch(ctx context.Context, chainID uint64, address common.Address) (*domain.VerifiedContract, error) {
	if c.apiKey == "" {
		return nil, errMissingAPIKey
	}

	var result *domain.VerifiedContract
	err := retry.Do(
		func() error {
			var err error
			result, err = c.getSourceCode(ctx, chainID, address)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errRateLimited) }),
		retry.OnRetry(func(attempt uint, err error) {
			c.log.Debug("Retrying Etherscan request", "attempt", attempt+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *EtherscanClient) getSourceCode(ctx context.Context, chainID uint64, address common.Address) (*domain.VerifiedContract, error) {
	query := url.Values{}
	query.Set("chainid", strconv.FormatUint(chainID, 10))
	query.Set("module", "contract")
	query.Set("action", "getsourcecode")
	query.Set("address", address.Hex())
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("etherscan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("etherscan returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode etherscan response: %w", err)
	}

	if data.Status != "1" {
		var msg string
		_ = json.Unmarshal(data.Result, &msg)
		if strings.Contains(strings.ToLower(msg), "rate limit") {
			return nil, errRateLimited
		}
		return nil, fmt.Errorf("etherscan error: %s: %s", data.Message, msg)
	}

	var results []sourceCode
	if err := json.Unmarshal(data.Result, &results); err != nil {
		return nil, fmt.Errorf("failed to decode etherscan result: %w", err)
	}
	if len(results) == 0 || results[0].SourceCode == "" {
		return nil, fmt.Errorf("%s: %w", address.Hex(), domain.ErrNotVerified)
	}

	src := results[0]
	return &domain.VerifiedContract{
		Address:              address,
		ContractName:         src.ContractName,
		SourceCode:           src.SourceCode,
		ABI:                  src.ABI,
		CompilerVersion:      src.CompilerVersion,
		ConstructorArguments: src.ConstructorArguments,
		LicenseType:          src.LicenseType,
		Proxy:                src.Proxy == "1",
		Implementation:       src.Implementation,
	}, nil
}

// Ensure EtherscanClient implements VerificationService
var _ usecase.VerificationService = (*EtherscanClient)(nil)
